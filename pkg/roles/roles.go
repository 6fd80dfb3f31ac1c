package roles

import "fmt"

// Role is the closed set of roles a user can hold.
type Role string

const (
	Admin      Role = "admin"
	Technician Role = "technician"
	Student    Role = "student"
	Controller Role = "controller"
)

func Parse(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %s", value)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case Admin, Technician, Student, Controller:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
