package roles

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Capability names one guarded operation.
type Capability string

const (
	PartsRead       Capability = "parts.read"
	PartsManage     Capability = "parts.manage"
	IssuanceCreate  Capability = "issuance.create"
	IssuanceManage  Capability = "issuance.manage"
	DeliveryCreate  Capability = "delivery.create"
	DeliveryConfirm Capability = "delivery.confirm"
	DeliveryManage  Capability = "delivery.manage"
	ToolsRead       Capability = "tools.read"
	ToolsManage     Capability = "tools.manage"
	ToolsSignout    Capability = "tools.signout"
	ReportsRead     Capability = "reports.read"
	UsersManage     Capability = "users.manage"
)

var allCapabilities = []Capability{
	PartsRead, PartsManage,
	IssuanceCreate, IssuanceManage,
	DeliveryCreate, DeliveryConfirm, DeliveryManage,
	ToolsRead, ToolsManage, ToolsSignout,
	ReportsRead, UsersManage,
}

// Policy maps each capability to the roles allowed to use it.
type Policy struct {
	grants map[Capability]map[Role]struct{}
}

func DefaultPolicy() *Policy {
	everyone := []Role{Admin, Technician, Student, Controller}
	staff := []Role{Admin, Technician, Student}

	p := &Policy{grants: map[Capability]map[Role]struct{}{}}
	p.Set(PartsRead, everyone...)
	p.Set(PartsManage, Admin)
	p.Set(IssuanceCreate, staff...)
	p.Set(IssuanceManage, Admin)
	p.Set(DeliveryCreate, staff...)
	p.Set(DeliveryConfirm, staff...)
	p.Set(DeliveryManage, Admin)
	p.Set(ToolsRead, everyone...)
	p.Set(ToolsManage, Admin)
	p.Set(ToolsSignout, Admin, Technician)
	p.Set(ReportsRead, Admin, Controller)
	p.Set(UsersManage, Admin)
	return p
}

func (p *Policy) Set(c Capability, roles ...Role) {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	p.grants[c] = set
}

// Allows reports whether role may use capability. Unknown capabilities are denied.
func (p *Policy) Allows(role Role, c Capability) bool {
	set, ok := p.grants[c]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

func (p *Policy) RolesFor(c Capability) []Role {
	var out []Role
	for _, r := range []Role{Admin, Technician, Student, Controller} {
		if _, ok := p.grants[c][r]; ok {
			out = append(out, r)
		}
	}
	return out
}

type policyFile struct {
	Capabilities map[string][]string `yaml:"capabilities"`
}

// LoadOverrides replaces the role list of every capability named in the YAML document.
func (p *Policy) LoadOverrides(r io.Reader) error {
	var doc policyFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode capability overrides: %w", err)
	}

	for name, roleNames := range doc.Capabilities {
		c := Capability(name)
		if !isKnown(c) {
			return fmt.Errorf("unknown capability %q", name)
		}
		granted := make([]Role, 0, len(roleNames))
		for _, rn := range roleNames {
			role, err := Parse(rn)
			if err != nil {
				return fmt.Errorf("capability %s: %w", name, err)
			}
			granted = append(granted, role)
		}
		p.Set(c, granted...)
	}
	return nil
}

// LoadPolicy returns the default policy with the overrides from path applied.
// An empty path yields the defaults.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capability file: %w", err)
	}
	defer f.Close()

	if err := p.LoadOverrides(f); err != nil {
		return nil, err
	}
	return p, nil
}

func isKnown(c Capability) bool {
	for _, known := range allCapabilities {
		if known == c {
			return true
		}
	}
	return false
}
