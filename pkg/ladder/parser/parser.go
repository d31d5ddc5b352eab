package parser

import (
	"errors"
	"fmt"
	"os"

	"mercator-hq/ladder/pkg/ladder/ast"
)

// Parser parses ladder files into ASTs.
type Parser struct {
	maxFileSize int64 // Maximum file size in bytes (default: 1MB)
	maxDepth    int   // Maximum condition nesting depth (default: 10)
	strictMode  bool  // Reject unknown top-level keys
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 1024 * 1024,
		maxDepth:    10,
		strictMode:  false,
	}
}

// WithMaxFileSize sets the maximum file size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum condition nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// WithStrictMode rejects unknown top-level keys when enabled.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strictMode = strict
	return p
}

// Parse parses the ladder file at path.
func (p *Parser) Parse(path string) (*ast.Ladder, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("failed to access file: %v", err),
			Location: ast.Location{File: path},
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
			Location: ast.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Location: ast.Location{File: path},
		}
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses ladder YAML held in memory. sourcePath is used only
// for error locations and ast.Ladder.SourceFile.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Ladder, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{File: sourcePath},
		}
	}

	yl, err := parseYAMLBytes(data, p.strictMode)
	if err != nil {
		if errors.Is(err, errEmptyDocument) {
			return nil, &Error{
				Type:       ErrorTypeStructural,
				Message:    "ladder file is empty",
				Location:   ast.Location{File: sourcePath, Line: 1, Column: 1},
				Suggestion: "a ladder needs at least 'name', 'rules', and 'default'",
			}
		}
		return nil, &Error{
			Type:       ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   ast.Location{File: sourcePath, Line: 1, Column: 1},
			Suggestion: "check YAML syntax (indentation, colons, quotes)",
		}
	}

	return newBuilder(sourcePath, p.maxDepth).buildLadder(yl)
}
