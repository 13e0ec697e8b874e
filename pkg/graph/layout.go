package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptyLayout is returned when a decoded layout contains no nodes.
var ErrEmptyLayout = errors.New("layout must contain nodes")

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// A missing viz type defaults to tree; unknown types and empty layouts are
// rejected.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	return l, check(&l)
}

// WriteLayout writes a Layout as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadLayout decodes a Layout from r.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode: %w", err)
	}
	return l, check(&l)
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

func check(l *Layout) error {
	if l.VizType == "" {
		l.VizType = VizTypeTree
	}
	if !ValidVizType(l.VizType) {
		return fmt.Errorf("unknown viz type %q", l.VizType)
	}
	if len(l.Nodes) == 0 {
		return ErrEmptyLayout
	}
	return nil
}
