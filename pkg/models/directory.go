package models

type StaffMember struct {
	ID           int     `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Email        *string `json:"email,omitempty" db:"email"`
	Phone        *string `json:"phone,omitempty" db:"phone"`
	BuildingID   *int    `json:"building_id,omitempty" db:"building_id"`
	CostCenterID *int    `json:"cost_center_id,omitempty" db:"cost_center_id"`
	Active       bool    `json:"active" db:"active"`
}

// UnknownStaffMember stands in for a staff row that no longer exists.
func UnknownStaffMember(id int) StaffMember {
	return StaffMember{
		ID:   id,
		Name: "Unknown Staff Member",
	}
}

type Building struct {
	ID      int     `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address,omitempty" db:"address"`
}

type CostCenter struct {
	ID          int     `json:"id" db:"id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}
