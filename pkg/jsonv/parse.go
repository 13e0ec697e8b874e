package jsonv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// ErrSyntax is returned when the input is not a single well-formed JSON value.
var ErrSyntax = errors.New("invalid JSON")

// Parse decodes a single JSON value from data.
//
// Object members keep their document order. The input is validated before
// decoding, so trailing garbage or unbalanced brackets are rejected with an
// error wrapping [ErrSyntax].
func Parse(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, fmt.Errorf("%w: empty document", ErrSyntax)
	}
	if !json.Valid(data) {
		return Value{}, fmt.Errorf("%w: %s", ErrSyntax, describeSyntaxError(data))
	}
	return decode(data, valueType(data))
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

// MustParse is like [Parse] but panics on error. Intended for tests and examples.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// ParseFile reads path and decodes it as YAML when the extension is .yaml or
// .yml, and as JSON otherwise.
func ParseFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// describeSyntaxError reports the offset of the first syntax error.
func describeSyntaxError(data []byte) string {
	var sink any
	err := json.Unmarshal(data, &sink)
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s (offset %d)", se.Error(), se.Offset)
	}
	if err != nil {
		return err.Error()
	}
	return "malformed input"
}

// valueType classifies a trimmed, already-validated JSON token.
func valueType(data []byte) jsonparser.ValueType {
	switch data[0] {
	case '{':
		return jsonparser.Object
	case '[':
		return jsonparser.Array
	case '"':
		return jsonparser.String
	case 't', 'f':
		return jsonparser.Boolean
	case 'n':
		return jsonparser.Null
	default:
		return jsonparser.Number
	}
}

// decode converts a raw token into a Value. Only top-level strings reach the
// String case, and those still carry their quotes.
func decode(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Bool(b), nil
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(raw)
		if err != nil {
			return parseWideNumber(raw)
		}
		return Number(f), nil
	case jsonparser.String:
		return decodeNested(raw[1:len(raw)-1], typ)
	case jsonparser.Array:
		return decodeArray(raw)
	case jsonparser.Object:
		return decodeObject(raw)
	default:
		return Value{}, fmt.Errorf("%w: unexpected token %q", ErrSyntax, truncate(raw, 16))
	}
}

func decodeArray(raw []byte) (Value, error) {
	items := []Value{}
	var firstErr error
	_, err := jsonparser.ArrayEach(raw, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		item, err := decodeNested(value, typ)
		if err != nil {
			firstErr = err
			return
		}
		items = append(items, item)
	})
	if firstErr != nil {
		return Value{}, firstErr
	}
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Array(items...), nil
}

func decodeObject(raw []byte) (Value, error) {
	var members []Member
	err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, typ jsonparser.ValueType, _ int) error {
		// ObjectEach has already unescaped key; it may alias a scratch buffer.
		child, err := decodeNested(value, typ)
		if err != nil {
			return err
		}
		members = append(members, Member{Key: string(key), Value: child})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSyntax) {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Object(members...), nil
}

// decodeNested handles values yielded by ArrayEach/ObjectEach, where string
// tokens arrive without their surrounding quotes.
func decodeNested(raw []byte, typ jsonparser.ValueType) (Value, error) {
	if typ == jsonparser.String {
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return String(s), nil
	}
	return decode(raw, typ)
}

// parseWideNumber accepts numbers beyond the float64 range, which round to
// ±Inf as they do in JavaScript. jsonparser rejects them outright.
func parseWideNumber(raw []byte) (Value, error) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Value{}, fmt.Errorf("%w: invalid number %q", ErrSyntax, truncate(raw, 16))
	}
	return Number(f), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
