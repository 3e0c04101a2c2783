package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "{{greeting}}, {user.name}! by {hidden}"
	testDataJSON        = `{"greeting": "Hello", "user": {"name": "Alice"}}`
	testDataYAML        = "greeting: Hi\nuser:\n  name: Bob\n"
	testExpectedOutput  = "Hello, Alice! by {hidden}"
	testInvalidContent  = "line one\nsee {broken"
)

// setupTestData creates test files in a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	files := map[string]string{
		"template.txt": testTemplateContent,
		"data.json":    testDataJSON,
		"data.yaml":    testDataYAML,
		"invalid.txt":  testInvalidContent,
		"bad.json":     "{not json",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(content), FilePermissions))
	}
	return tmpDir
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(stdin string, args ...string) cliResult {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	res := runCLI("")

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, CLIName)
	assert.Contains(t, res.stdout, CmdNameScan)
	assert.Contains(t, res.stdout, CmdNameRender)
}

func TestRun_UnknownCommand(t *testing.T) {
	res := runCLI("", "unknown")

	assert.Equal(t, ExitCodeUsageError, res.code)
	assert.Contains(t, res.stdout, ErrMsgUnknownCommand)
}

// ==================== Help command tests ====================

func TestHelp(t *testing.T) {
	tests := []struct {
		command string
		usage   string
	}{
		{CmdNameScan, HelpScanUsage},
		{CmdNameRender, HelpRenderUsage},
		{CmdNameValidate, HelpValidateUsage},
		{CmdNameVersion, HelpVersionUsage},
		{CmdNameHelp, HelpHelpUsage},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			exitCode := runHelp([]string{tt.command}, stdout)

			assert.Equal(t, ExitCodeSuccess, exitCode)
			assert.Contains(t, stdout.String(), tt.usage)
		})
	}
}

// ==================== Version command tests ====================

func TestVersion_TextFormat(t *testing.T) {
	res := runCLI("", CmdNameVersion)

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, CLIName)
}

func TestVersion_JSONFormat(t *testing.T) {
	res := runCLI("", CmdNameVersion, "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, res.code)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Version)
}

func TestVersion_InvalidFormat(t *testing.T) {
	res := runCLI("", CmdNameVersion, "-F", "xml")

	assert.Equal(t, ExitCodeUsageError, res.code)
	assert.Contains(t, res.stderr, ErrMsgInvalidFormat)
}

// ==================== Scan command tests ====================

func TestScan_TextFormat(t *testing.T) {
	res := runCLI("Hi {name}", CmdNameScan, "-t", InputSourceStdin)

	require.Equal(t, ExitCodeSuccess, res.code)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1:1\tTEXT\t-\t\"Hi \"", lines[0])
	assert.Equal(t, "1:4\tWRAPPED\tcurly\t\"name\"", lines[1])
}

func TestScan_JSONFormat(t *testing.T) {
	res := runCLI("${HOME}/{{ x }}", CmdNameScan, "-t", "-", "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, res.code)

	var elements []elementOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &elements))
	require.Len(t, elements, 3)

	assert.Equal(t, elementOutput{Type: "WRAPPED", Kind: "dollar_curly", Text: "HOME", Offset: 0, Line: 1, Column: 1}, elements[0])
	assert.Equal(t, elementOutput{Type: "TEXT", Text: "/", Offset: 7, Line: 1, Column: 8}, elements[1])
	assert.Equal(t, elementOutput{Type: "WRAPPED", Kind: "double_curly", Text: " x ", Offset: 8, Line: 1, Column: 9}, elements[2])
}

func TestScan_Legacy(t *testing.T) {
	res := runCLI("{{{raw}}}", CmdNameScan, "-t", "-", "--legacy", "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, res.code)

	var elements []elementOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &elements))
	require.Len(t, elements, 1)
	assert.Equal(t, "triple_curly", elements[0].Kind)
	assert.Equal(t, "raw", elements[0].Text)
}

func TestScan_Strict(t *testing.T) {
	lenient := runCLI("a {b", CmdNameScan, "-t", "-")
	assert.Equal(t, ExitCodeSuccess, lenient.code)

	strict := runCLI("a {b", CmdNameScan, "-t", "-", "--strict")
	assert.Equal(t, ExitCodeValidationError, strict.code)
	assert.Contains(t, strict.stderr, ErrMsgScanFailed)
	assert.Contains(t, strict.stderr, "line 1, column 3")
}

func TestScan_Usage(t *testing.T) {
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameScan).code)
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameScan, "-t", "-", "-F", "xml").code)
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameScan, "--bogus").code)
	assert.Equal(t, ExitCodeInputError, runCLI("", CmdNameScan, "-t", "/does/not/exist").code)
}

// ==================== Render command tests ====================

func TestRender_WithDataString(t *testing.T) {
	tmpDir := setupTestData(t)

	res := runCLI("", CmdNameRender, "-t", filepath.Join(tmpDir, "template.txt"), "-d", testDataJSON)

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Equal(t, testExpectedOutput, res.stdout)
}

func TestRender_WithDataFile(t *testing.T) {
	tmpDir := setupTestData(t)
	templatePath := filepath.Join(tmpDir, "template.txt")

	jsonRes := runCLI("", CmdNameRender, "-t", templatePath, "-f", filepath.Join(tmpDir, "data.json"))
	assert.Equal(t, ExitCodeSuccess, jsonRes.code)
	assert.Equal(t, testExpectedOutput, jsonRes.stdout)

	yamlRes := runCLI("", CmdNameRender, "-t", templatePath, "--data-file", filepath.Join(tmpDir, "data.yaml"))
	assert.Equal(t, ExitCodeSuccess, yamlRes.code)
	assert.Equal(t, "Hi, Bob! by {hidden}", yamlRes.stdout)
}

func TestRender_Stdin(t *testing.T) {
	res := runCLI("Hello {name}", CmdNameRender, "-t", InputSourceStdin, "-d", `{"name": "stdin"}`)

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Equal(t, "Hello stdin", res.stdout)
}

func TestRender_NoDataIsIdentity(t *testing.T) {
	res := runCLI(testTemplateContent, CmdNameRender, "-t", "-")

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Equal(t, testTemplateContent, res.stdout)
}

func TestRender_Env(t *testing.T) {
	t.Setenv("WRAPPED_CLI_TEST", "from-env")

	without := runCLI("${WRAPPED_CLI_TEST}", CmdNameRender, "-t", "-")
	assert.Equal(t, "${WRAPPED_CLI_TEST}", without.stdout)

	with := runCLI("${WRAPPED_CLI_TEST}", CmdNameRender, "-t", "-", "--env")
	assert.Equal(t, ExitCodeSuccess, with.code)
	assert.Equal(t, "from-env", with.stdout)

	dataFirst := runCLI("${WRAPPED_CLI_TEST}", CmdNameRender, "-t", "-", "--env", "-d", `{"WRAPPED_CLI_TEST": "from-data"}`)
	assert.Equal(t, "from-data", dataFirst.stdout)
}

func TestRender_RequireAll(t *testing.T) {
	tmpDir := setupTestData(t)
	templatePath := filepath.Join(tmpDir, "template.txt")

	res := runCLI("", CmdNameRender, "-t", templatePath, "-d", testDataJSON, "--require-all")
	assert.Equal(t, ExitCodeValidationError, res.code)
	assert.Contains(t, res.stderr, ErrMsgUnresolved)
	assert.Contains(t, res.stderr, "{hidden}")
	assert.Empty(t, res.stdout)

	res = runCLI("", CmdNameRender, "-t", templatePath, "-d", `{"greeting": "a", "user": {"name": "b"}, "hidden": "c"}`, "--require-all")
	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Equal(t, "a, b! by c", res.stdout)
}

func TestRender_Strict(t *testing.T) {
	tmpDir := setupTestData(t)
	invalidPath := filepath.Join(tmpDir, "invalid.txt")

	lenient := runCLI("", CmdNameRender, "-t", invalidPath)
	assert.Equal(t, ExitCodeSuccess, lenient.code)
	assert.Equal(t, testInvalidContent, lenient.stdout)

	strict := runCLI("", CmdNameRender, "-t", invalidPath, "--strict")
	assert.Equal(t, ExitCodeValidationError, strict.code)
	assert.Contains(t, strict.stderr, "line 2, column 5")
}

func TestRender_OutputFile(t *testing.T) {
	tmpDir := setupTestData(t)
	outputPath := filepath.Join(tmpDir, "out.txt")

	res := runCLI("Hi {name}", CmdNameRender, "-t", "-", "-d", `{"name": "file"}`, "-o", outputPath)
	require.Equal(t, ExitCodeSuccess, res.code)
	assert.Empty(t, res.stdout)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "Hi file", string(content))
}

func TestRender_Quiet(t *testing.T) {
	res := runCLI("Hi {name}", CmdNameRender, "-t", "-", "-q")

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Empty(t, res.stdout)
}

func TestRender_Errors(t *testing.T) {
	tmpDir := setupTestData(t)
	templatePath := filepath.Join(tmpDir, "template.txt")

	tests := []struct {
		name     string
		args     []string
		exitCode int
		stderr   string
	}{
		{"missing template", []string{}, ExitCodeUsageError, ErrMsgMissingTemplate},
		{"unknown flag", []string{"-t", templatePath, "--bogus"}, ExitCodeUsageError, ErrMsgInvalidFlags},
		{"missing file", []string{"-t", filepath.Join(tmpDir, "nope.txt")}, ExitCodeInputError, ErrMsgReadFileFailed},
		{"invalid json", []string{"-t", templatePath, "-d", "{oops"}, ExitCodeInputError, ErrMsgInvalidData},
		{"invalid json file", []string{"-t", templatePath, "-f", filepath.Join(tmpDir, "bad.json")}, ExitCodeInputError, ErrMsgInvalidData},
		{"null data", []string{"-t", templatePath, "-d", "null"}, ExitCodeInputError, ErrMsgDataNotObject},
		{"both data sources", []string{"-t", templatePath, "-d", "{}", "-f", filepath.Join(tmpDir, "data.json")}, ExitCodeInputError, ErrMsgDataConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI("", append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.exitCode, res.code)
			assert.Contains(t, res.stderr, tt.stderr)
		})
	}
}

// ==================== Validate command tests ====================

func TestValidate_Valid(t *testing.T) {
	res := runCLI("{{a}} {b} ${a}", CmdNameValidate, "-t", "-")

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, ValidationTextSuccess)
	assert.Contains(t, res.stdout, "5 element(s), 3 placeholder(s)")
	assert.Contains(t, res.stdout, "Keys: a, b")
}

func TestValidate_Invalid(t *testing.T) {
	tmpDir := setupTestData(t)

	res := runCLI("", CmdNameValidate, "-t", filepath.Join(tmpDir, "invalid.txt"))

	assert.Equal(t, ExitCodeValidationError, res.code)
	assert.Contains(t, res.stdout, ValidationTextIssueHeader)
	assert.Contains(t, res.stdout, "[ERROR] unterminated wrapper curly at line 2, column 5")
}

func TestValidate_JSONFormat(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		res := runCLI("Hi {name}", CmdNameValidate, "-t", "-", "-F", OutputFormatJSON)
		require.Equal(t, ExitCodeSuccess, res.code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.True(t, out.Valid)
		require.NotNil(t, out.Summary)
		assert.Equal(t, 1, out.Summary.Placeholders)
		assert.Empty(t, out.Issues)
	})

	t.Run("invalid", func(t *testing.T) {
		res := runCLI("x ${y", CmdNameValidate, "-t", "-", "-F", OutputFormatJSON)
		assert.Equal(t, ExitCodeValidationError, res.code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.False(t, out.Valid)
		require.Len(t, out.Issues, 1)
		assert.Equal(t, validationIssueOutput{
			Severity: SeverityNameError,
			Message:  "unterminated wrapper",
			Wrapper:  "dollar_curly",
			Line:     1,
			Column:   3,
		}, out.Issues[0])
	})
}

func TestValidate_Usage(t *testing.T) {
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameValidate).code)
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameValidate, "-t", "-", "-F", "yaml").code)
}

func TestLoadData(t *testing.T) {
	data, err := loadData("", "")
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = loadData(`{"a": {"b": 1}}`, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": float64(1)}}, data)

	assert.True(t, isYAMLFile("x.YAML"))
	assert.True(t, isYAMLFile("x.yml"))
	assert.False(t, isYAMLFile("x.json"))
}
