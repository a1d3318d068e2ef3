package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pollscript/internal/harness"
)

// ValidationIssue is one problem found in a scenario file.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Scenarios int               `json:"scenarios"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files without running them.

Each file is decoded strictly, checked for structural errors (unknown ops,
bad step syntax, options that do not fit the scenario kind) and validated
against the embedded CUE schema. Scenario names must be unique because
they name the golden files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	log := opts.logger()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, "")
	if err != nil {
		return outputValidateError(formatter, ErrCodeLoad, err.Error())
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeLoad, fmt.Sprintf("no scenario files found in %s", dir))
	}

	var issues []ValidationIssue
	seen := make(map[string]string)

	for _, file := range files {
		log.Debug("validating scenario", "file", file)

		scenario, err := harness.LoadScenario(file)
		if err != nil {
			issues = append(issues, ValidationIssue{File: file, Message: err.Error()})
			continue
		}
		if prev, ok := seen[scenario.Name]; ok {
			issues = append(issues, ValidationIssue{
				File:    file,
				Message: fmt.Sprintf("duplicate scenario name %q (also in %s)", scenario.Name, prev),
			})
			continue
		}
		seen[scenario.Name] = file
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, len(files), issues)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Scenarios: len(files)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", len(files))
	return nil
}

// outputValidateError reports a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssues reports invalid scenarios (exit code 1).
func outputValidationIssues(formatter *OutputFormatter, total int, issues []ValidationIssue) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(issues))

	if formatter.JSON() {
		err := formatter.Failure(ErrCodeInvalid, msg, ValidationResult{
			Valid:     false,
			Scenarios: total,
			Errors:    issues,
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "%s\n  %s\n\n", issue.File, issue.Message)
	}

	return NewExitError(ExitFailure, msg)
}
