package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-wrapped"
)

// scanConfig holds parsed scan command configuration
type scanConfig struct {
	templatePath string
	format       string
	strict       bool
	legacy       bool
}

// elementOutput represents one element in JSON output
type elementOutput struct {
	Type   string `json:"type"`
	Kind   string `json:"kind,omitempty"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func runScan(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseScanFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	opts := []wrapped.Option{wrapped.WithCatalog(catalogFor(cfg.legacy))}
	if cfg.strict {
		opts = append(opts, wrapped.WithStrict())
	}
	scanner, err := wrapped.NewScanner(opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, err)
		return ExitCodeError
	}

	elements, err := scanner.Scan(string(source))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, describeScanError(err))
		return ExitCodeValidationError
	}

	if cfg.format == OutputFormatJSON {
		if err := writeJSON(stdout, toElementOutputs(elements)); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
			return ExitCodeError
		}
		return ExitCodeSuccess
	}

	for _, el := range elements {
		value, kind := el.Text, "-"
		if el.IsWrapped() {
			value, kind = el.Item.Text, el.Item.Wrapper.String()
		}
		fmt.Fprintf(stdout, ScanTextFormat+FmtNewline,
			el.Position.Line, el.Position.Column, el.Type, kind, value)
	}
	return ExitCodeSuccess
}

func parseScanFlags(args []string) (*scanConfig, error) {
	fs := flag.NewFlagSet(CmdNameScan, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &scanConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")
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

func toElementOutputs(elements []wrapped.Element) []elementOutput {
	out := make([]elementOutput, 0, len(elements))
	for _, el := range elements {
		o := elementOutput{
			Type:   string(el.Type),
			Text:   el.Text,
			Offset: el.Position.Offset,
			Line:   el.Position.Line,
			Column: el.Position.Column,
		}
		if el.IsWrapped() {
			o.Kind = el.Item.Wrapper.String()
			o.Text = el.Item.Text
		}
		out = append(out, o)
	}
	return out
}
