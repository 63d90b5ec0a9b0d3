// Package registry holds the permission schema: the fixed set of modules,
// their boolean permission fields, and the role templates that seed user
// grants. The definition is loaded once at startup and is immutable
// afterwards; schema changes ship as a new deployment.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

//go:embed default.yaml
var defaultDefinition []byte

type definition struct {
	Modules []moduleDefinition `yaml:"modules"`
	Roles   []roleDefinition   `yaml:"roles"`
}

type moduleDefinition struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

type roleDefinition struct {
	Name    string              `yaml:"name"`
	Modules map[string][]string `yaml:"modules"`
}

// Registry is the loaded, validated permission schema. All methods are safe
// for concurrent use: nothing mutates after Parse returns.
type Registry struct {
	modules   []domain.Module
	fields    map[string]map[string]struct{}
	templates map[string]domain.RoleTemplate
	roleOrder []string
}

// Load reads the schema definition from path, falling back to the embedded
// default when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultDefinition
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema definition %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes and validates a schema definition. Any structural problem is
// fatal: the process must not start with a malformed schema.
func Parse(data []byte) (*Registry, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode schema definition: %w", err)
	}

	if len(def.Modules) == 0 {
		return nil, fmt.Errorf("schema definition declares no modules")
	}

	r := &Registry{
		modules:   make([]domain.Module, 0, len(def.Modules)),
		fields:    make(map[string]map[string]struct{}, len(def.Modules)),
		templates: make(map[string]domain.RoleTemplate, len(def.Roles)),
	}

	for _, mod := range def.Modules {
		if mod.Name == "" {
			return nil, fmt.Errorf("schema definition contains a module with no name")
		}
		if _, exists := r.fields[mod.Name]; exists {
			return nil, fmt.Errorf("duplicate module %q in schema definition", mod.Name)
		}
		if len(mod.Fields) == 0 {
			return nil, fmt.Errorf("module %q declares no fields", mod.Name)
		}

		fieldSet := make(map[string]struct{}, len(mod.Fields))
		for _, field := range mod.Fields {
			if field == "" {
				return nil, fmt.Errorf("module %q contains an empty field name", mod.Name)
			}
			if _, dup := fieldSet[field]; dup {
				return nil, fmt.Errorf("duplicate field %q in module %q", field, mod.Name)
			}
			fieldSet[field] = struct{}{}
		}

		r.fields[mod.Name] = fieldSet
		r.modules = append(r.modules, domain.Module{
			Name:   mod.Name,
			Fields: append([]string(nil), mod.Fields...),
		})
	}

	for _, role := range def.Roles {
		if role.Name == "" {
			return nil, fmt.Errorf("schema definition contains a role with no name")
		}
		if _, exists := r.templates[role.Name]; exists {
			return nil, fmt.Errorf("duplicate role %q in schema definition", role.Name)
		}

		modules := make(map[string][]string, len(role.Modules))
		for module, fields := range role.Modules {
			valid, ok := r.fields[module]
			if !ok {
				return nil, fmt.Errorf("role %q references unknown module %q", role.Name, module)
			}
			for _, field := range fields {
				if _, ok := valid[field]; !ok {
					return nil, fmt.Errorf("role %q references unknown field %q in module %q", role.Name, field, module)
				}
			}
			sorted := append([]string(nil), fields...)
			sort.Strings(sorted)
			modules[module] = sorted
		}

		r.templates[role.Name] = domain.RoleTemplate{Name: role.Name, Modules: modules}
		r.roleOrder = append(r.roleOrder, role.Name)
	}

	return r, nil
}

// ListModules returns the modules in definition order.
func (r *Registry) ListModules() []domain.Module {
	return r.modules
}

// FieldsFor returns the fields declared for module, in definition order.
func (r *Registry) FieldsFor(module string) ([]string, bool) {
	for _, mod := range r.modules {
		if mod.Name == module {
			return mod.Fields, true
		}
	}
	return nil, false
}

// IsValidField reports whether (module, field) exists in the schema.
func (r *Registry) IsValidField(module, field string) bool {
	fields, ok := r.fields[module]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}

// FullSet returns a grant set covering every (module, field) pair, all false.
func (r *Registry) FullSet() domain.GrantSet {
	full := make(domain.GrantSet, len(r.modules))
	for _, mod := range r.modules {
		fields := make(map[string]bool, len(mod.Fields))
		for _, field := range mod.Fields {
			fields[field] = false
		}
		full[mod.Name] = fields
	}
	return full
}

// Template returns the role template for name.
func (r *Registry) Template(name string) (domain.RoleTemplate, bool) {
	tpl, ok := r.templates[name]
	return tpl, ok
}

// Templates returns all role templates in definition order.
func (r *Registry) Templates() []domain.RoleTemplate {
	out := make([]domain.RoleTemplate, 0, len(r.roleOrder))
	for _, name := range r.roleOrder {
		out = append(out, r.templates[name])
	}
	return out
}
