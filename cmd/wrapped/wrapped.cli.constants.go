package main

// Command names
const (
	CmdNameScan     = "scan"
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate   = "template"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagOutput     = "output"
	FlagQuiet      = "quiet"
	FlagFormat     = "format"
	FlagStrictMode = "strict"
	FlagLegacy     = "legacy"
	FlagEnv        = "env"
	FlagRequireAll = "require-all"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagQuietShort    = "q"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Data file extensions decoded as YAML; everything else is JSON
const (
	DataFileExtYAML = ".yaml"
	DataFileExtYML  = ".yml"
)

// Error messages
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingTemplate   = "template source required"
	ErrMsgInvalidFlags      = "invalid flags"
	ErrMsgInvalidData       = "invalid data"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgScanFailed        = "template scan failed"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgJSONMarshalFailed = "failed to marshal JSON"
	ErrMsgDataConflict      = "use either --data or --data-file, not both"
	ErrMsgDataNotObject     = "data must be an object"
	ErrMsgUnresolved        = "unresolved placeholders"
)

// Help text
const (
	HelpMainUsage = `go-wrapped - placeholder scanning and substitution CLI

Usage:
    wrapped <command> [options]

Commands:
    scan        Split a template into text and placeholders
    render      Substitute placeholders with data
    validate    Check a template for unterminated wrappers
    version     Show version information
    help        Show help for a command

Use "wrapped help <command>" for more information about a command.`

	HelpScanUsage = `Split a template into text and placeholders

Usage:
    wrapped scan [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)
    --strict                Fail on unterminated wrappers
    --legacy                Also recognize {{{triple}}} wrappers

Examples:
    wrapped scan -t template.txt
    echo 'Hi {name}' | wrapped scan -t - -F json`

	HelpRenderUsage = `Substitute placeholders with data

Usage:
    wrapped render [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  JSON or YAML data file (.yaml, .yml)
    -o, --output <file>     Output file (default: stdout)
    -q, --quiet             Suppress non-error output
    --env                   Resolve ${VAR} from the environment
    --strict                Fail on unterminated wrappers
    --legacy                Also recognize {{{triple}}} wrappers
    --require-all           Fail when any placeholder stays unresolved

Examples:
    wrapped render -t template.txt -d '{"name": "Alice"}'
    wrapped render -t template.txt -f data.yaml --env
    cat template.txt | wrapped render -t - -d '{"user": {"name": "Bob"}}'`

	HelpValidateUsage = `Check a template for unterminated wrappers

Usage:
    wrapped validate [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)
    --legacy                Also recognize {{{triple}}} wrappers

Examples:
    wrapped validate -t template.txt
    cat template.txt | wrapped validate -t - -F json`

	HelpVersionUsage = `Show version information

Usage:
    wrapped version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    wrapped help [command]

Commands:
    scan        Show help for scan command
    render      Show help for render command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output
const (
	VersionTextTemplate = "go-wrapped version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFileName    = "versions.yaml"
)

// Scan output
const (
	ScanTextFormat = "%d:%d\t%s\t%s\t%q"
)

// Validation output
const (
	ValidationTextSuccess     = "Template is valid"
	ValidationTextIssueHeader = "Validation issues:"
	ValidationTextIssueFormat = "  [%s] %s %s at line %d, column %d"
	ValidationTextSummary     = "%d element(s), %d placeholder(s)"
	ValidationTextKeys        = "Keys: %s"
	SeverityNameError         = "ERROR"
)

// CLI metadata
const (
	CLIName = "wrapped"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
	JSONIndent         = "  "
)
