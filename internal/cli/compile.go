package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/formrules/internal/compiler"
	"github.com/roach88/formrules/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled forms and their spec hashes.
type CompilationResult struct {
	Forms      []*ir.FormSpec    `json:"forms"`
	SpecHashes map[string]string `json:"spec_hashes"`
	IRVersion  string            `json:"ir_version"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	FormCount  int
	FieldCount int
	RuleCount  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE form specs to canonical IR",
		Long: `Compile CUE form specs to canonical IR.

Every form under the top-level "form" key is compiled, keeping field and
rule declaration order, and hashed over its canonical JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := opts.logger()

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		loadErr := firstLoadError(loadErrors)
		return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, file := range loadResult.Files {
		formatter.VerboseLog("  %s", file)
	}
	for _, form := range loadResult.Forms {
		formatter.VerboseLog("Compiling form: %s", form.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{
		Forms:      loadResult.Forms,
		SpecHashes: make(map[string]string, len(loadResult.Forms)),
		IRVersion:  ir.IRVersion,
	}
	for _, form := range loadResult.Forms {
		hash, err := ir.SpecHash(*form)
		if err != nil {
			return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("hashing form %s: %v", form.Name, err), nil)
		}
		result.SpecHashes[form.Name] = hash
	}
	log.Info("specs compiled", "dir", specsDir, "forms", len(result.Forms))

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, calculateStats(result), opts.Output)
}

// calculateStats computes summary statistics from compilation result.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{FormCount: len(result.Forms)}
	for _, form := range result.Forms {
		stats.FieldCount += len(form.Fields)
		for _, field := range form.Fields {
			stats.RuleCount += len(field.Rules)
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d form(s), %d field(s), %d rule(s)\n\n",
		stats.FormCount, stats.FieldCount, stats.RuleCount)

	fmt.Fprintln(w, "Forms:")
	for _, form := range result.Forms {
		rules := 0
		for _, field := range form.Fields {
			rules += len(field.Rules)
		}
		fmt.Fprintf(w, "  %s: %d field(s), %d rule(s) [%s]\n",
			form.Name, len(form.Fields), rules, result.SpecHashes[form.Name])
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compilation result as indented JSON.
// Canonical JSON without indentation is used only for hashing.
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
