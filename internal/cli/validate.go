package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/formrules/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Forms  int                        `json:"forms"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate form specs without writing output",
		Long: `Validate CUE form specs.

Checks that every form compiles, then runs the consistency checks: control
types, duplicate names, rule kinds, length bounds, patterns and field
references.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	validationErrors, forms, err := validateSpecs(specsDir, formatter)
	if err != nil {
		loadErr := firstLoadError([]error{err})
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, forms, validationErrors)
	}
	return outputValidateSuccess(formatter, forms)
}

// validateSpecs compiles every form in specsDir and runs compiler.Validate on
// each. Compile failures become validation errors. The returned error is
// set only when the directory cannot be loaded at all.
func validateSpecs(specsDir string, formatter *OutputFormatter) ([]compiler.ValidationError, int, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		return nil, 0, loadErrors[0]
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	var all []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
		}
		all = append(all, compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
		})
	}

	for _, form := range loadResult.Forms {
		formatter.VerboseLog("Validating form: %s", form.Name)
		for _, verr := range compiler.Validate(form) {
			verr.Field = "form." + form.Name + "." + verr.Field
			all = append(all, verr)
		}
	}
	return all, len(loadResult.Forms), nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, forms int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Forms: forms})
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d form(s))\n", forms)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
// Validation failures exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, forms int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Forms: forms, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateSpecsDir validates all specs in a directory.
// This is a helper function for external callers.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	silent := &OutputFormatter{Format: "text", Writer: io.Discard}
	errs, _, err := validateSpecs(specsDir, silent)
	return errs, err
}
