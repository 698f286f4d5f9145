package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the subset of a package manifest the contract reads. Fields the
// contract never looks at are not validated.
type Manifest struct {
	Name    string
	Scripts map[string]string

	// nonString maps script keys with a non-string value to the kind found.
	nonString map[string]string
}

// LoadManifest reads and parses the manifest at path. JSON is the default;
// .yaml and .yml files are parsed as YAML. Any read or parse failure is
// returned as a *ManifestError.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	m, err := ParseManifest(data, filepath.Ext(path))
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	return m, nil
}

// ParseManifest decodes manifest bytes. ext selects the format (".yaml", ".yml"
// or anything else for JSON). The document must be a key-value record, and
// scripts, when present, must be one too.
func ParseManifest(data []byte, ext string) (*Manifest, error) {
	m := &Manifest{Scripts: make(map[string]string), nonString: make(map[string]string)}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := m.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		if err := m.decodeJSON(data); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	}
	return m, nil
}

func (m *Manifest) decodeJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	if top == nil {
		return fmt.Errorf("top level is not an object")
	}

	if raw, ok := top["name"]; ok {
		_ = json.Unmarshal(raw, &m.Name) // a non-string name is left empty
	}

	raw, ok := top["scripts"]
	if !ok || string(raw) == "null" {
		return nil
	}
	var scripts map[string]any
	if err := json.Unmarshal(raw, &scripts); err != nil {
		return fmt.Errorf("scripts is not an object")
	}
	for k, v := range scripts {
		if s, ok := v.(string); ok {
			m.Scripts[k] = s
			continue
		}
		m.nonString[k] = jsonKind(v)
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	default:
		return "object"
	}
}

func (m *Manifest) decodeYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("top level is not a mapping")
	}

	top := doc.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		k, v := top.Content[i], resolveAlias(top.Content[i+1])
		switch k.Value {
		case "name":
			if isYAMLString(v) {
				m.Name = v.Value
			}
		case "scripts":
			if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
				continue
			}
			if v.Kind != yaml.MappingNode {
				return fmt.Errorf("scripts is not a mapping")
			}
			for j := 0; j+1 < len(v.Content); j += 2 {
				sk, sv := v.Content[j].Value, resolveAlias(v.Content[j+1])
				if isYAMLString(sv) {
					m.Scripts[sk] = sv.Value
					continue
				}
				m.nonString[sk] = yamlKind(sv)
			}
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isYAMLString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return strings.TrimPrefix(n.ShortTag(), "!!")
	}
}

// Script returns the command for key. Whitespace-only and non-string values
// count as absent.
func (m *Manifest) Script(key string) (string, bool) {
	if m == nil || m.Scripts == nil {
		return "", false
	}
	cmd, ok := m.Scripts[key]
	if !ok || strings.TrimSpace(cmd) == "" {
		return "", false
	}
	return cmd, true
}

// requireStrings fails on the first of keys whose script value is not a string.
func (m *Manifest) requireStrings(keys []string) error {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if kind, ok := m.nonString[k]; ok {
			return fmt.Errorf("script %q must be a string, got %s", k, kind)
		}
	}
	return nil
}
