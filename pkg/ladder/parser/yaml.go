package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlLadder is the intermediate structure a ladder file decodes into.
// Rules, cases, and values stay as yaml.Node so the builder can report
// line and column numbers.
type yamlLadder struct {
	Name        string      `yaml:"name"`
	Version     string      `yaml:"version"`
	Description string      `yaml:"description"`
	Tags        []string    `yaml:"tags"`
	Input       yamlInput   `yaml:"input"`
	Rules       []yaml.Node `yaml:"rules"`
	Default     yaml.Node   `yaml:"default"`
	Cases       []yaml.Node `yaml:"cases"`
}

type yamlInput struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlRule struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Enabled     *bool     `yaml:"enabled"` // Pointer to distinguish unset vs false
	When        yaml.Node `yaml:"when"`
	Then        yaml.Node `yaml:"then"`
}

type yamlCase struct {
	Name   string    `yaml:"name"`
	Input  yaml.Node `yaml:"input"`
	Expect yaml.Node `yaml:"expect"`
}

// errEmptyDocument is returned for files with no YAML document.
var errEmptyDocument = errors.New("empty document")

// parseYAMLBytes decodes a ladder file. With strict set, unknown top-level
// keys are rejected.
func parseYAMLBytes(data []byte, strict bool) (*yamlLadder, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(strict)

	var yl yamlLadder
	if err := dec.Decode(&yl); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyDocument
		}
		return nil, err
	}
	return &yl, nil
}

// present reports whether a yaml.Node field was set in the document.
func present(n *yaml.Node) bool {
	return n != nil && n.Kind != 0
}

// resolve follows alias nodes to their target.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mappingKeys returns the key/value pairs of a mapping node.
func mappingKeys(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out
}

// normalize converts a decoded YAML value to the ladder value model:
// every number becomes float64 and nested collections are normalized.
func normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
