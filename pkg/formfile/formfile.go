// Package formfile reads and writes form definitions as YAML or JSON files.
//
// Both formats share the JSON field names of model.Form. YAML documents are
// decoded into generic values first and then bound through encoding/json, so
// a definition means the same thing in either syntax.
package formfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Format names a file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for extensions other than .yaml, .yml and
// .json.
var ErrUnknownFormat = errors.New("formfile: unknown format")

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Decode reads one form definition. JSON input is valid YAML, so either
// syntax is accepted. Unknown keys are errors.
func Decode(data []byte) (model.Form, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return model.Form{}, fmt.Errorf("formfile: parse: %w", err)
	}
	return bind(generic)
}

// DecodeAll reads every document of a multi-document YAML stream.
func DecodeAll(r io.Reader) ([]model.Form, error) {
	dec := yaml.NewDecoder(r)
	var forms []model.Form
	for i := 0; ; i++ {
		var generic any
		err := dec.Decode(&generic)
		if errors.Is(err, io.EOF) {
			return forms, nil
		}
		if err != nil {
			return nil, fmt.Errorf("formfile: parse document %d: %w", i, err)
		}
		if generic == nil {
			continue
		}
		form, err := bind(generic)
		if err != nil {
			return nil, fmt.Errorf("formfile: document %d: %w", i, err)
		}
		forms = append(forms, form)
	}
}

func bind(generic any) (model.Form, error) {
	if _, ok := generic.(map[string]any); !ok {
		return model.Form{}, errors.New("formfile: definition must be a mapping")
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return model.Form{}, fmt.Errorf("formfile: convert: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var form model.Form
	if err := dec.Decode(&form); err != nil {
		return model.Form{}, fmt.Errorf("formfile: bind: %w", err)
	}
	return form, nil
}

// Encode writes form in the requested format. YAML output keeps the JSON
// member order and block style.
func Encode(form model.Form, format Format) ([]byte, error) {
	raw, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("formfile: encode: %w", err)
	}
	switch format {
	case FormatJSON:
		return append(raw, '\n'), nil
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("formfile: encode: %w", err)
		}
		blockStyle(&node)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("formfile: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("formfile: encode: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// blockStyle clears the flow and quoting styles the JSON syntax leaves on
// every node. The encoder re-quotes strings that would otherwise change type.
func blockStyle(node *yaml.Node) {
	node.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle
	for _, child := range node.Content {
		blockStyle(child)
	}
}

// ReadFile decodes the definition at path.
func ReadFile(path string) (model.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Form{}, fmt.Errorf("formfile: read %s: %w", path, err)
	}
	form, err := Decode(data)
	if err != nil {
		return model.Form{}, fmt.Errorf("%s: %w", path, err)
	}
	return form, nil
}

// WriteFile encodes form in the format implied by path's extension.
func WriteFile(path string, form model.Form) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(form, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("formfile: write %s: %w", path, err)
	}
	return nil
}

// LoadDir decodes every .yaml, .yml and .json file directly under dir in
// lexical order. Files without an id get one derived from the file name.
func LoadDir(dir string) ([]model.Form, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("formfile: read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := FormatOf(entry.Name()); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	forms := make([]model.Form, 0, len(names))
	for _, name := range names {
		form, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(form.ID) == "" {
			form.ID = strings.TrimSuffix(name, filepath.Ext(name))
		}
		forms = append(forms, form)
	}
	return forms, nil
}
