package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-wrapped"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	format       string
	legacy       bool
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid   bool                    `json:"valid"`
	Summary *wrapped.Summary        `json:"summary,omitempty"`
	Issues  []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Wrapper  string `json:"wrapper"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	scanner, err := wrapped.NewScanner(wrapped.WithCatalog(catalogFor(cfg.legacy)), wrapped.WithStrict())
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, err)
		return ExitCodeError
	}

	output := validationOutput{Valid: true}
	elements, err := scanner.Scan(string(source))
	if err != nil {
		issue, ok := issueFromError(err)
		if !ok {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, err)
			return ExitCodeError
		}
		output.Valid = false
		output.Issues = []validationIssueOutput{issue}
	} else {
		summary := wrapped.Summarize(elements)
		output.Summary = &summary
	}

	if cfg.format == OutputFormatJSON {
		if err := writeJSON(stdout, output); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
			return ExitCodeError
		}
	} else {
		outputValidationText(output, stdout)
	}

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.legacy, FlagLegacy, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func outputValidationText(output validationOutput, stdout io.Writer) {
	if !output.Valid {
		fmt.Fprintln(stdout, ValidationTextIssueHeader)
		for _, issue := range output.Issues {
			fmt.Fprintf(stdout, ValidationTextIssueFormat+FmtNewline,
				issue.Severity, issue.Message, issue.Wrapper, issue.Line, issue.Column)
		}
		return
	}

	fmt.Fprintln(stdout, ValidationTextSuccess)
	fmt.Fprintf(stdout, ValidationTextSummary+FmtNewline,
		output.Summary.Elements, output.Summary.Placeholders)
	if len(output.Summary.Keys) > 0 {
		fmt.Fprintf(stdout, ValidationTextKeys+FmtNewline, strings.Join(output.Summary.Keys, ", "))
	}
}

// issueFromError converts an unterminated wrapper error into an issue
func issueFromError(err error) (validationIssueOutput, bool) {
	kind, _, ok := wrapped.UnterminatedWrapperDetails(err)
	if !ok {
		return validationIssueOutput{}, false
	}
	issue := validationIssueOutput{
		Severity: SeverityNameError,
		Message:  wrapped.ErrMsgUnterminatedWrapper,
		Wrapper:  kind.String(),
	}

	var customErr *cuserr.CustomError
	if errors.As(err, &customErr) {
		if line, ok := customErr.GetMetadata(wrapped.MetaKeyLine); ok {
			issue.Line, _ = strconv.Atoi(line)
		}
		if column, ok := customErr.GetMetadata(wrapped.MetaKeyColumn); ok {
			issue.Column, _ = strconv.Atoi(column)
		}
	}
	return issue, true
}

// describeScanError renders scan errors with their position when known
func describeScanError(err error) string {
	issue, ok := issueFromError(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s %s at line %d, column %d", issue.Message, issue.Wrapper, issue.Line, issue.Column)
}
