package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/itsatony/go-wrapped"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData decodes render data from an inline JSON string or a JSON/YAML file
func loadData(jsonStr, filePath string) (map[string]any, error) {
	if jsonStr != "" && filePath != "" {
		return nil, errors.New(ErrMsgDataConflict)
	}

	var raw any
	switch {
	case filePath != "":
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if isYAMLFile(filePath) {
			err = yaml.Unmarshal(content, &raw)
		} else {
			err = json.Unmarshal(content, &raw)
		}
		if err != nil {
			return nil, err
		}
	case jsonStr != "":
		if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
			return nil, err
		}
	default:
		return make(map[string]any), nil
	}

	result, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New(ErrMsgDataNotObject)
	}
	return result, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == DataFileExtYAML || ext == DataFileExtYML
}

// catalogFor returns the catalog selected by the --legacy flag
func catalogFor(legacy bool) wrapped.Catalog {
	if legacy {
		return wrapped.LegacyCatalog()
	}
	return wrapped.DefaultCatalog()
}

// writeJSON writes v as indented JSON followed by a newline
func writeJSON(stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", JSONIndent)
	if err != nil {
		return err
	}
	_, err = stdout.Write(append(data, '\n'))
	return err
}
