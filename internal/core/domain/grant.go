package domain

// GrantSet maps module name -> permission field -> granted flag.
// A missing field is equivalent to false (default-deny).
type GrantSet map[string]map[string]bool

// Clone returns a deep copy of the set.
func (g GrantSet) Clone() GrantSet {
	if g == nil {
		return nil
	}
	out := make(GrantSet, len(g))
	for module, fields := range g {
		copied := make(map[string]bool, len(fields))
		for field, granted := range fields {
			copied[field] = granted
		}
		out[module] = copied
	}
	return out
}

// Set records a single grant value, allocating the module bucket on demand.
func (g GrantSet) Set(module, field string, granted bool) {
	fields, ok := g[module]
	if !ok {
		fields = make(map[string]bool)
		g[module] = fields
	}
	fields[field] = granted
}

// Merge overlays delta onto the set. Fields absent from delta are untouched.
func (g GrantSet) Merge(delta GrantSet) {
	for module, fields := range delta {
		for field, granted := range fields {
			g.Set(module, field, granted)
		}
	}
}

// IsEmpty reports whether the set carries no field values at all.
func (g GrantSet) IsEmpty() bool {
	for _, fields := range g {
		if len(fields) > 0 {
			return false
		}
	}
	return true
}

// Granted returns the stored value for (module, field), false when absent.
func (g GrantSet) Granted(module, field string) bool {
	fields, ok := g[module]
	if !ok {
		return false
	}
	return fields[field]
}

// UserGrants pairs a user's stored grants with the revision token used for
// optimistic concurrency. Revision zero means the user has never been written.
type UserGrants struct {
	UserID   string
	Grants   GrantSet
	Revision int64
}
