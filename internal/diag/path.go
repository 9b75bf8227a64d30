package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way.
type PathRef struct {
	parts []string
}

// Root returns the empty pointer ("/").
func Root() PathRef { return PathRef{} }

// At parses a pointer such as "/systems/0". Empty segments after the
// leading slash are empty keys and are kept.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	return PathRef{parts: strings.Split(strings.TrimPrefix(path, "/"), "/")}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Field appends an object key. '~' and '/' are escaped per RFC 6901; the
// empty key is a segment of its own.
func (p PathRef) Field(name string) PathRef {
	return PathRef{parts: append(append([]string{}, p.parts...), pointerEscaper.Replace(name))}
}

// Index appends an array index.
func (p PathRef) Index(i int) PathRef {
	return PathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// Pointer renders the path.
func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p PathRef) String() string { return p.Pointer() }

// Scope attaches issues to one entity. The zero value discards everything.
type Scope struct {
	Kind   Kind
	Entity string
	Path   PathRef
	sink   *Issues
}

// NewScope returns a scope that appends to sink.
func NewScope(sink *Issues, kind Kind, entity string, path PathRef) Scope {
	return Scope{Kind: kind, Entity: entity, Path: path, sink: sink}
}

// Child derives the scope of a nested entity sharing the same sink.
func (s Scope) Child(kind Kind, entity string, path PathRef) Scope {
	return Scope{Kind: kind, Entity: entity, Path: path, sink: s.sink}
}

// Named returns a copy of s carrying the entity name, once it is known.
func (s Scope) Named(entity string) Scope {
	s.Entity = entity
	return s
}

// Report records an issue on field (empty for the entity itself). kv is an
// alternating key/value list stored in Params.
func (s Scope) Report(code, field string, outcome Outcome, msg string, kv ...any) {
	if s.sink == nil {
		return
	}
	var params map[string]any
	if len(kv) > 1 {
		params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	path := s.Path
	if field != "" {
		for _, f := range strings.Split(field, ".") {
			path = path.Field(f)
		}
	}
	*s.sink = append(*s.sink, Issue{
		Path:    path.Pointer(),
		Code:    code,
		Message: msg,
		Kind:    s.Kind,
		Entity:  s.Entity,
		Field:   field,
		Outcome: outcome,
		Params:  params,
	})
}
