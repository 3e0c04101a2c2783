package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/itsatony/go-wrapped"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	dataJSON     string
	dataFilePath string
	outputPath   string
	quiet        bool
	env          bool
	strict       bool
	legacy       bool
	requireAll   bool
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	data, err := loadData(cfg.dataJSON, cfg.dataFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidData, err)
		return ExitCodeInputError
	}

	opts := []wrapped.Option{wrapped.WithCatalog(catalogFor(cfg.legacy))}
	if cfg.strict {
		opts = append(opts, wrapped.WithStrict())
	}
	engine, err := wrapped.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, err)
		return ExitCodeError
	}

	elements, err := engine.Scan(string(source))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, describeScanError(err))
		return ExitCodeValidationError
	}

	resolvers := []wrapped.Resolver{wrapped.ValuesResolver(data)}
	if cfg.env {
		resolvers = append(resolvers, wrapped.EnvResolver(os.LookupEnv))
	}
	result := engine.Formatter(resolvers...).Render(elements)

	if cfg.requireAll && len(result.Unresolved) > 0 {
		forms := make([]string, len(result.Unresolved))
		for i, item := range result.Unresolved {
			forms[i] = engine.Scanner().Catalog().Wrap(item)
		}
		fmt.Fprintf(stderr, FmtErrorWithDetail, ErrMsgUnresolved, strings.Join(forms, ", "))
		return ExitCodeValidationError
	}

	if cfg.quiet {
		return ExitCodeSuccess
	}

	if err := writeOutput(cfg.outputPath, []byte(result.Output), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &renderConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.dataJSON, FlagData, "", "")
	fs.StringVar(&cfg.dataJSON, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.BoolVar(&cfg.quiet, FlagQuiet, false, "")
	fs.BoolVar(&cfg.quiet, FlagQuietShort, false, "")
	fs.BoolVar(&cfg.env, FlagEnv, false, "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")
	fs.BoolVar(&cfg.legacy, FlagLegacy, false, "")
	fs.BoolVar(&cfg.requireAll, FlagRequireAll, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	return cfg, nil
}
