package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/formrules/internal/compiler"
	"github.com/roach88/formrules/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult holds the forms compiled from a specs directory.
type LoadResult struct {
	Forms     []*ir.FormSpec
	Files     []string // CUE files in the package, in walk order
	FileCount int
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads the CUE package in dir and compiles every form under the
// top-level "form" key, in declaration order.
//
// A nil result means the directory itself could not be loaded. Otherwise the
// errors are per-form compile failures: LoadModeFailFast stops at the first,
// LoadModeCollectAll keeps going.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	value, files, loadErr := loadPackage(dir)
	if loadErr != nil {
		return nil, []error{loadErr}
	}

	result := &LoadResult{Files: files, FileCount: len(files)}
	errs := compileForms(value, mode, result)
	if len(result.Forms) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no forms found in specs"})
	}
	return result, errs
}

// loadPackage builds the single CUE package rooted at dir.
func loadPackage(dir string) (cue.Value, []string, *LoadError) {
	fail := func(code, format string, args ...any) (cue.Value, []string, *LoadError) {
		return cue.Value{}, nil, &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return fail(ErrCodeNotFound, "specs directory not found: %s", dir)
	case err != nil:
		return fail(ErrCodeNotFound, "error accessing specs directory: %v", err)
	case !info.IsDir():
		return fail(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return fail(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return fail(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fail(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if inst := instances[0]; inst.Err != nil {
		return fail(ErrCodeLoadFailed, "loading CUE files: %v", inst.Err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return fail(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return value, files, nil
}

// compileForms appends every form that compiles to result.Forms and returns
// the failures.
func compileForms(value cue.Value, mode LoadMode, result *LoadResult) []error {
	formsVal := value.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil
	}
	iter, err := formsVal.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating forms: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		spec, err := compiler.CompileForm(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "form."+iter.Label()))
			if mode == LoadModeFailFast {
				break
			}
			continue
		}
		result.Forms = append(result.Forms, spec)
	}
	return errs
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// firstLoadError returns the first error as a LoadError, wrapping others.
func firstLoadError(errs []error) *LoadError {
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		return loadErr
	}
	return &LoadError{Code: ErrCodeGeneric, Message: errs[0].Error()}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
// Form validation codes (E1xx) are shared with the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Trace store error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "purpose":
		return compiler.ErrFormPurposeEmpty
	case field == "field":
		return compiler.ErrFormNoFields
	case strings.HasSuffix(field, ".type"):
		return compiler.ErrInvalidControlType
	case strings.HasSuffix(field, ".kind"):
		return compiler.ErrUnknownRuleKind
	default:
		return ErrCodeGeneric
	}
}
