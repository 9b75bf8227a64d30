package starcat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeError reports a document that could not be converted to JSON text.
// Load turns it into a fatal malformed_input issue.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// YAMLBytes wraps an in-memory YAML document. The first document of a
// multi-document stream is used.
func YAMLBytes(b []byte) Source { return yamlSource{inner: JSONBytes(b), name: "yaml"} }

// YAMLFile reads a YAML document from disk on every Read.
func YAMLFile(path string) Source { return yamlSource{inner: JSONFile(path), name: path} }

type yamlSource struct {
	inner Source
	name  string
}

func (s yamlSource) Name() string { return s.name }

// Read applies limit to the YAML text, then converts it to JSON.
func (s yamlSource) Read(limit int64) ([]byte, error) {
	raw, err := s.inner.Read(limit)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(raw)) > limit {
		return raw, nil
	}
	return yamlToJSON(raw)
}

func yamlToJSON(raw []byte) ([]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var node any
	if err := dec.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Err: errors.New("empty YAML document")}
		}
		return nil, &DecodeError{Err: err}
	}
	out, err := gojson.Marshal(yamlNormalizeValue(node))
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("YAML value has no JSON form: %w", err)}
	}
	return out, nil
}

// yamlNormalizeValue converts YAML-decoded values (which may contain map[any]any)
// into JSON-like values recursively. Non-string keys are formatted.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}

// FileSource picks YAMLFile or JSONFile from the file extension.
func FileSource(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFile(path)
	default:
		return JSONFile(path)
	}
}
