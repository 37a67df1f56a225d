package host

import (
	"fmt"

	"github.com/roach88/formrules/internal/ir"
)

// Build adds a form described by spec to doc.
//
// Fields become controls, or buttons for submit, reset and button types.
// Fields sharing a group are wrapped in a fieldset created at the group's
// first field. Custom rules are not attached; that needs an engine.
func Build(doc *Document, spec *ir.FormSpec) (*Form, error) {
	form := doc.NewForm(spec.Name)
	groups := make(map[string]*FieldSet)

	for _, fs := range spec.Fields {
		var set *FieldSet
		if fs.Group != "" {
			set = groups[fs.Group]
			if set == nil {
				set = form.AddFieldSet(fs.Group)
				groups[fs.Group] = set
			}
		}

		switch fs.Type {
		case "submit", "reset", "button":
			if set != nil {
				set.AddButton(fs.Name, fs.Type)
			} else {
				form.AddButton(fs.Name, fs.Type)
			}
			continue
		}

		var c *Control
		if set != nil {
			c = set.AddControl(fs.Name, fs.Type)
		} else {
			c = form.AddControl(fs.Name, fs.Type)
		}

		if err := c.SetConstraints(Constraints{
			Required:  fs.Required,
			MinLength: fs.MinLength,
			MaxLength: fs.MaxLength,
			Pattern:   fs.Pattern,
		}); err != nil {
			return nil, fmt.Errorf("build form %q: %w", spec.Name, err)
		}

		if fs.Type == "select-one" {
			for _, opt := range fs.Options {
				c.AddOption(opt, fs.Default != "" && opt == fs.Default)
			}
			continue
		}
		c.SetDefaultValue(fs.Default)
	}

	return form, nil
}
