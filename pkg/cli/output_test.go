package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type planetTable struct{}

func (planetTable) Header() []string { return []string{"PLANET", "FACTOR"} }
func (planetTable) Rows() [][]string {
	return [][]string{{"Mercury", "0.38"}, {"Jupiter", "2.53"}}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if tt.wantErr && ExitCode(err) != ExitUsage {
				t.Error("format errors should be usage errors")
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "Sophomore"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "Sophomore\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestTextFormatter_Tabular(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, planetTable{}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "Mercury  ") || !strings.HasSuffix(lines[1], "0.38") {
		t.Errorf("row not aligned: %q", lines[1])
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		indent bool
	}{
		{"compact", false},
		{"indented", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			data := map[string]any{"ladder": "seasons", "result": "Winter"}
			if err := (&JSONFormatter{Indent: tt.indent}).FormatTo(buf, data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}
			if decoded["result"] != "Winter" {
				t.Errorf("decoded = %v", decoded)
			}
			if got := strings.Contains(buf.String(), "\n  "); got != tt.indent {
				t.Errorf("indentation = %v, want %v", got, tt.indent)
			}
		})
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).FormatTo(buf, planetTable{}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	want := "PLANET,FACTOR\nMercury,0.38\nJupiter,2.53\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := (&CSVFormatter{}).FormatTo(buf, "not a table"); err == nil {
		t.Error("expected error for non-tabular data")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got := NewFormatter(tt.format)
			if typeName(got) != tt.want {
				t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, typeName(got), tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextFormatter:
		return "*cli.TextFormatter"
	case *JSONFormatter:
		return "*cli.JSONFormatter"
	case *CSVFormatter:
		return "*cli.CSVFormatter"
	}
	return "?"
}
