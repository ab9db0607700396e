package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects a dump encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks the encoding for a file by its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ecis":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("project: unknown file type %q", filepath.Ext(path))
}

// Encode writes d to w.
func Encode(w io.Writer, d Dump, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("yaml marshal: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("yaml marshal: %w", err)
		}
	default:
		return fmt.Errorf("project: unknown format %d", f)
	}
	return nil
}

// Decode reads a dump from r.
func Decode(r io.Reader, f Format) (Dump, error) {
	var d Dump
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return Dump{}, fmt.Errorf("json unmarshal: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return Dump{}, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		return Dump{}, fmt.Errorf("project: unknown format %d", f)
	}
	return d, nil
}

// SaveFile writes d to path in the format implied by its extension.
func SaveFile(path string, d Dump) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(out, d, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a dump from path in the format implied by its extension.
func LoadFile(path string) (Dump, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Dump{}, err
	}
	in, err := os.Open(path)
	if err != nil {
		return Dump{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer in.Close()
	return Decode(in, f)
}
