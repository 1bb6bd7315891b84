package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Shape tells which matcher recognized a model response.
type Shape int

const (
	ParseFailed Shape = iota
	ParsedAsArray
	ParsedAsWrapped
	ParsedAsSingleton
)

func (s Shape) String() string {
	switch s {
	case ParsedAsArray:
		return "array"
	case ParsedAsWrapped:
		return "wrapped"
	case ParsedAsSingleton:
		return "singleton"
	default:
		return "failed"
	}
}

// Parsed is the outcome of matching a model response. Items holds the raw
// JSON of every candidate quote object; Key names the wrapper field for
// ParsedAsWrapped.
type Parsed struct {
	Shape Shape
	Key   string
	Items []json.RawMessage
	Err   error
}

var wrapperKeys = []string{"analyses", "quotes", "results"}

type shapeMatcher func(trimmed []byte) (Parsed, bool)

// Matchers run in this order; the first that accepts the payload wins.
var shapeMatchers = []shapeMatcher{
	matchArray,
	matchWrapperKey,
	matchSingleListField,
	matchSingleton,
}

// ParseResponse decodes a model response into candidate quote objects.
// Markdown code fences around the JSON are ignored.
func ParseResponse(text string) Parsed {
	trimmed := bytes.TrimSpace([]byte(stripFences(text)))
	if len(trimmed) == 0 {
		return Parsed{Shape: ParseFailed, Err: fmt.Errorf("empty response")}
	}
	if !json.Valid(trimmed) {
		return Parsed{Shape: ParseFailed, Err: fmt.Errorf("response is not valid JSON")}
	}
	for _, m := range shapeMatchers {
		if p, ok := m(trimmed); ok {
			return p
		}
	}
	return Parsed{Shape: ParseFailed, Err: fmt.Errorf("response is neither an array nor an object")}
}

func matchArray(data []byte) (Parsed, bool) {
	if data[0] != '[' {
		return Parsed{}, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return Parsed{}, false
	}
	return Parsed{Shape: ParsedAsArray, Items: items}, true
}

func decodeObject(data []byte) (map[string]json.RawMessage, bool) {
	if data[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func asList(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func matchWrapperKey(data []byte) (Parsed, bool) {
	obj, ok := decodeObject(data)
	if !ok {
		return Parsed{}, false
	}
	for _, key := range wrapperKeys {
		if items, ok := asList(obj[key]); ok {
			return Parsed{Shape: ParsedAsWrapped, Key: key, Items: items}, true
		}
	}
	return Parsed{}, false
}

func matchSingleListField(data []byte) (Parsed, bool) {
	obj, ok := decodeObject(data)
	if !ok {
		return Parsed{}, false
	}
	var (
		found string
		items []json.RawMessage
	)
	for key, raw := range obj {
		list, ok := asList(raw)
		if !ok {
			continue
		}
		if found != "" {
			return Parsed{}, false
		}
		found, items = key, list
	}
	if found == "" {
		return Parsed{}, false
	}
	return Parsed{Shape: ParsedAsWrapped, Key: found, Items: items}, true
}

func matchSingleton(data []byte) (Parsed, bool) {
	if _, ok := decodeObject(data); !ok {
		return Parsed{}, false
	}
	return Parsed{Shape: ParsedAsSingleton, Items: []json.RawMessage{json.RawMessage(data)}}, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
