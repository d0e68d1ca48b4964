package schema

import (
	"fmt"
	"strings"

	storm "github.com/Startitecture/storm-sub007"
)

// ValidationResult holds the results of descriptor validation.
type ValidationResult struct {
	Errors   []*storm.SchemaError
	Warnings []*storm.SchemaError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the validation errors as a single error, or nil.
func (r *ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return storm.NewAggregateError(errs...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(d *Descriptor, rel, col, format string, args ...any) {
	r.Errors = append(r.Errors, storm.NewRelationError(d.Name, rel, col, fmt.Sprintf(format, args...)))
}

func (r *ValidationResult) warnf(d *Descriptor, col, format string, args ...any) {
	r.Warnings = append(r.Warnings, storm.NewRelationError(d.Name, "", col, fmt.Sprintf(format, args...)))
}

// Validate checks the parts of a descriptor that do not depend on other
// row types. Relation columns on the related row types are checked when
// the join plan is resolved.
func Validate(d *Descriptor) *ValidationResult {
	res := &ValidationResult{}
	if d.Table == "" {
		res.errorf(d, "", "", "table name is empty")
	}
	if len(d.Columns) == 0 {
		res.errorf(d, "", "", "no columns declared")
	}
	validateRelations(d, res)
	validateColumns(d, res)
	return res
}

func validateColumns(d *Descriptor, res *ValidationResult) {
	var (
		names    = make(map[string]struct{}, len(d.Columns))
		physical = make(map[string]struct{}, len(d.Columns))
		keys     int
	)
	for _, c := range d.Columns {
		if c.Name == "" {
			res.errorf(d, "", "", "column name is empty")
			continue
		}
		folded := Fold(c.Name)
		if _, ok := names[folded]; ok {
			res.errorf(d, "", c.Name, "column declared more than once")
		}
		names[folded] = struct{}{}
		if c.Type == TypeInvalid {
			res.errorf(d, "", c.Name, "column type is not set")
		}
		if c.Related() {
			if _, ok := d.relation(c.Path); !ok {
				res.errorf(d, strings.Join(c.Path, "."), c.Name, "column is read through an undeclared relation")
			}
			if c.Key || c.Identity {
				res.errorf(d, strings.Join(c.Path, "."), c.Name, "related column cannot be a key or identity column")
			}
			continue
		}
		p := Fold(c.Physical())
		if _, ok := physical[p]; ok {
			res.errorf(d, "", c.Name, "physical column %q mapped more than once", c.Physical())
		}
		physical[p] = struct{}{}
		if c.Identity && c.Nullable {
			res.errorf(d, "", c.Name, "identity column cannot be nullable")
		}
		if c.Key {
			keys++
		}
	}
	if keys == 0 && len(d.Columns) > 0 {
		res.warnf(d, "", "no key columns declared")
	}
}

func validateRelations(d *Descriptor, res *ValidationResult) {
	seen := make(map[string]*Relation, len(d.Relations))
	for _, r := range d.Relations {
		path := r.PathString()
		if len(r.Path) == 0 {
			res.errorf(d, "", "", "relation to %s has an empty path", r.TargetLabel())
			continue
		}
		if r.Target == nil && r.TargetName == "" {
			res.errorf(d, path, "", "relation has no target row type")
		}
		if r.FromColumn == "" || r.ToColumn == "" {
			res.errorf(d, path, "", "relation join columns are not set")
		}
		folded := Fold(path)
		if _, ok := seen[folded]; ok {
			res.errorf(d, path, "", "relation declared more than once")
			continue
		}
		if parent := r.Parent(); parent != nil {
			p, ok := seen[Fold(strings.Join(parent, "."))]
			switch {
			case !ok:
				res.errorf(d, path, "", "parent relation %s must be declared before it", strings.Join(parent, "."))
			case p.Kind == Left && r.Kind == Inner:
				res.errorf(d, path, "", "inner join cannot follow the left join %s", p.PathString())
			}
		}
		seen[folded] = r
	}
}

// relation finds a relation by path without relying on the lookup index,
// which is only built after validation succeeds.
func (d *Descriptor) relation(path []string) (*Relation, bool) {
	want := Fold(strings.Join(path, "."))
	for _, r := range d.Relations {
		if Fold(r.PathString()) == want {
			return r, true
		}
	}
	return nil, false
}
