package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// document is a lenient view over a decoded JSON object.
// Missing or mistyped fields read as zero values.
type document map[string]any

func decodeDocument(payload []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	// one value only, anything but whitespace after it is malformed
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after the top level value", ErrInvalidPayload)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level value is not an object", ErrInvalidPayload)
	}
	return document(obj), nil
}

func (d document) lookup(path ...string) (any, bool) {
	var cur any = map[string]any(d)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// str renders scalars as text. Objects and arrays read as "".
func (d document) str(path ...string) string {
	v, ok := d.lookup(path...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// firstStr returns the first non-empty string among paths.
func (d document) firstStr(paths ...[]string) string {
	for _, p := range paths {
		if s := d.str(p...); s != "" {
			return s
		}
	}
	return ""
}

func (d document) int64Ptr(path ...string) *int64 {
	v, ok := d.lookup(path...)
	if !ok {
		return nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func (d document) objects(path ...string) []document {
	v, ok := d.lookup(path...)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]document, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, document(m))
		}
	}
	return out
}
