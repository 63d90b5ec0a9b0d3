package domain

// Module is a named functional area with a fixed set of boolean permission
// fields. Modules are defined by the schema registry at startup and never
// change at runtime.
type Module struct {
	Name   string
	Fields []string
}

// RoleTemplate is a named default bundle of grants: module -> fields that the
// role turns on. Templates seed or reset a user's grants; they are not live
// policies, so later edits to a user are never reverted by template changes.
type RoleTemplate struct {
	Name    string
	Modules map[string][]string
}

// Delta expands the template into a grant set with every templated field true.
func (t RoleTemplate) Delta() GrantSet {
	delta := make(GrantSet, len(t.Modules))
	for module, fields := range t.Modules {
		for _, field := range fields {
			delta.Set(module, field, true)
		}
	}
	return delta
}
