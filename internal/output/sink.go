// Package output writes the generated document to disk.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dt-pm-tools/issuedata/internal/record"
)

// Supported document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FileSink writes documents as pretty-printed files, replacing any file
// already at the target path.
type FileSink struct {
	format string
}

// NewFileSink creates a FileSink. An empty format picks the format from the
// file extension, defaulting to JSON.
func NewFileSink(format string) *FileSink {
	return &FileSink{format: strings.ToLower(strings.TrimSpace(format))}
}

// Write serializes doc to path, creating parent directories as needed.
func (s *FileSink) Write(path string, doc record.Document) error {
	data, err := Encode(doc, s.formatFor(path))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func (s *FileSink) formatFor(path string) string {
	if s.format != "" {
		return s.format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes doc in the given format with two-space indentation.
func Encode(doc record.Document, format string) ([]byte, error) {
	if doc.Content == nil {
		doc.Content = []record.Record{}
	}

	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding JSON: %w", err)
		}
		return buf.Bytes(), nil

	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding YAML: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
