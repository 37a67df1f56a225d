package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/formrules/internal/ir"
)

// CompileForms compiles every form declared under the top-level "form" key,
// in declaration order. A value without forms yields an empty slice.
func CompileForms(v cue.Value) ([]*ir.FormSpec, error) {
	formsVal := v.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil, nil
	}

	iter, err := formsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var forms []*ir.FormSpec
	for iter.Next() {
		spec, err := CompileForm(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("form.%s: %w", iter.Label(), err)
		}
		forms = append(forms, spec)
	}
	return forms, nil
}

// LoadFiles compiles the forms declared in each CUE file. Every file is
// compiled on its own; a form name declared in two files is an error.
func LoadFiles(paths ...string) ([]*ir.FormSpec, error) {
	ctx := cuecontext.New()
	seen := make(map[string]string)

	var forms []*ir.FormSpec
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read spec file: %w", err)
		}

		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}

		fileForms, err := CompileForms(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range fileForms {
			if prev, dup := seen[f.Name]; dup {
				return nil, fmt.Errorf("form %q declared in both %s and %s", f.Name, prev, path)
			}
			seen[f.Name] = path
			forms = append(forms, f)
		}
	}
	return forms, nil
}

// FindForm returns the form named name.
func FindForm(forms []*ir.FormSpec, name string) (*ir.FormSpec, bool) {
	for _, f := range forms {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
