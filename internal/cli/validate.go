package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config string         `json:"config"`
	Errors []FieldProblem `json:"errors,omitempty"`
	// Summary is set for a valid config.
	Summary *ConfigSummary `json:"summary,omitempty"`
}

// FieldProblem is one invalid config value.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ConfigSummary describes a valid config.
type ConfigSummary struct {
	Name        string   `json:"name,omitempty"`
	Handedness  string   `json:"handedness"`
	Checkpoints []string `json:"checkpoints"`
	Required    int      `json:"required_ingredients"`
	Accepted    []string `json:"accepted,omitempty"`
	Lines       int      `json:"narration_lines"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a cauldron config",
		Long: `Load and validate a cauldron config without running the engine.

YAML files (.yaml, .yml, .json) are decoded strictly: unknown keys are
errors. CUE files (.cue) are unified with the built-in #Cauldron schema.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found, unsupported extension)

Examples:
  cauldron validate ./cauldron.yaml
  cauldron validate ./cauldron.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("config file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "config file not found", err)
	}

	formatter.VerboseLog("Loading %s", path)
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrUnsupportedFormat) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err != nil {
		return outputValidationErrors(formatter, path, []FieldProblem{problemFrom(err)})
	}

	return outputValidateSuccess(formatter, path, summarize(cfg))
}

// problemFrom converts a load error into a FieldProblem. Errors that are not
// *config.ConfigError are decode failures of the whole document.
func problemFrom(err error) FieldProblem {
	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		return FieldProblem{Field: "document", Message: err.Error()}
	}

	p := FieldProblem{Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		p.Line = ce.Pos.Line()
		p.Column = ce.Pos.Column()
	}
	return p
}

func summarize(cfg *config.Config) *ConfigSummary {
	s := &ConfigSummary{
		Name:        cfg.Name,
		Handedness:  cfg.Integrator().Handedness.String(),
		Checkpoints: make([]string, 0, len(cfg.Checkpoints)),
		Required:    cfg.Ingredients.Required,
		Accepted:    cfg.Ingredients.Accepted,
		Lines:       len(cfg.Narration.Lines),
	}
	for _, cp := range cfg.Checkpoints {
		s.Checkpoints = append(s.Checkpoints, fmt.Sprintf("%g %s", cp.RequiredRotations, cp.Direction))
	}
	return s
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path string, summary *ConfigSummary) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Config: path, Summary: summary})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "OK %s\n", path)
	fmt.Fprintf(w, "  handedness:  %s\n", summary.Handedness)
	fmt.Fprintf(w, "  checkpoints: %v\n", summary.Checkpoints)
	fmt.Fprintf(w, "  required:    %d ingredient(s)\n", summary.Required)
	return nil
}

// outputValidationErrors outputs validation problems.
// Validation failures = exit code 1.
func outputValidationErrors(formatter *OutputFormatter, path string, problems []FieldProblem) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.JSON() {
		err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Config: path, Errors: problems},
			Error: &CLIError{
				Code:    ErrCodeConfigInvalid,
				Message: problems[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "FAIL %s\n\n", path)
	for _, p := range problems {
		if p.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d:%d\n", p.Line, p.Column)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Field, p.Message)
	}
	return exitErr
}
