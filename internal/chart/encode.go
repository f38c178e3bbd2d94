package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/KaramelBytes/edalens/internal/utils"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format selects how a Spec is serialized.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgPack Format = "msgpack"
)

// ParseFormat resolves a format name; "yml" and "mp" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mp":
		return FormatMsgPack, nil
	}
	return "", dataset.Invalid("chart format", "unknown format %q (use json|yaml|msgpack)", s)
}

// ContentType is the media type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMsgPack:
		return "application/msgpack"
	}
	return "application/json"
}

// Ext is the file extension, including the dot, used for a format.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMsgPack:
		return ".msgpack"
	}
	return ".json"
}

// Encode writes spec to w. All formats share the JSON field names.
func Encode(w io.Writer, spec *Spec, f Format) error {
	switch f {
	case FormatJSON, "":
		b, err := utils.PrettyJSON(spec)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		return enc.Close()
	case FormatMsgPack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetSortMapKeys(true)
		if err := enc.Encode(spec); err != nil {
			return fmt.Errorf("marshal msgpack: %w", err)
		}
		return nil
	}
	return dataset.Invalid("chart format", "unknown format %q", f)
}
