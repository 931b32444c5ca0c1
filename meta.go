package pagemill

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry types that can be assigned through _meta sidecar files.
const (
	TypeDoc       = "doc"
	TypePage      = "page"
	TypeMenu      = "menu"
	TypeSeparator = "separator"
)

const (
	DisplayNormal = "normal"
	DisplayHidden = "hidden"
)

// WildcardKey supplies defaults for every sibling covered by a meta
// file.
const WildcardKey = "*"

// MetaEntry configures a single sibling in a _meta file. A bare string
// value in the file is shorthand for MetaEntry{Title: value}.
type MetaEntry struct {
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type,omitempty"`
	Display   string    `json:"display,omitempty"`
	HRef      string    `json:"href,omitempty"`
	NewWindow bool      `json:"newWindow,omitempty"`
	Theme     *Theme    `json:"theme,omitempty"`
	Items     *MetaFile `json:"items,omitempty"`
}

// withDefaults fills unset fields of the entry from the wildcard
// entry of the surrounding meta file.
func (m MetaEntry) withDefaults(def MetaEntry) MetaEntry {
	if m.Title == "" {
		m.Title = def.Title
	}

	if m.Type == "" {
		m.Type = def.Type
	}

	if m.Display == "" {
		m.Display = def.Display
	}

	if m.Theme == nil {
		m.Theme = def.Theme
	} else if def.Theme != nil {
		t := def.Theme.Extend(m.Theme)
		m.Theme = &t
	}

	return m
}

// MetaFile is an ordered set of meta entries. Key order is
// significant: it defines the sort order of the siblings it covers.
type MetaFile struct {
	Keys    []string             `json:"keys"`
	Entries map[string]MetaEntry `json:"entries"`
}

func newMetaFile() *MetaFile {
	return &MetaFile{
		Entries: make(map[string]MetaEntry),
	}
}

func (m *MetaFile) add(key string, entry MetaEntry) {
	if _, dup := m.Entries[key]; !dup {
		m.Keys = append(m.Keys, key)
	}

	m.Entries[key] = entry
}

// Get returns the entry for the named sibling.
func (m *MetaFile) Get(name string) (MetaEntry, bool) {
	if m == nil {
		return MetaEntry{}, false
	}

	e, ok := m.Entries[name]

	return e, ok
}

// Wildcard returns the defaults that apply to every sibling.
func (m *MetaFile) Wildcard() MetaEntry {
	e, _ := m.Get(WildcardKey)

	return e
}

// ParseMetaJSON parses a _meta.json document. Unlike a plain
// map[string]any unmarshal it preserves the order of the object keys,
// as that order is what sorts the sibling entries.
func ParseMetaJSON(data []byte) (*MetaFile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read meta document: %w", err)
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("meta document must be a JSON object")
	}

	mf := newMetaFile()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read meta key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected meta key %v", keyTok)
		}

		var raw json.RawMessage

		err = dec.Decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("read value for %q: %w", key, err)
		}

		entry, err := metaEntryFromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("meta entry %q: %w", key, err)
		}

		mf.add(key, entry)
	}

	return mf, nil
}

func metaEntryFromJSON(raw json.RawMessage) (MetaEntry, error) {
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var title string

		err := json.Unmarshal(trimmed, &title)
		if err != nil {
			return MetaEntry{}, fmt.Errorf("unmarshal title: %w", err)
		}

		return MetaEntry{Title: title}, nil
	}

	var obj struct {
		Title     string          `json:"title"`
		Type      string          `json:"type"`
		Display   string          `json:"display"`
		HRef      string          `json:"href"`
		NewWindow bool            `json:"newWindow"`
		Theme     *Theme          `json:"theme"`
		Items     json.RawMessage `json:"items"`
	}

	err := json.Unmarshal(trimmed, &obj)
	if err != nil {
		return MetaEntry{}, fmt.Errorf("unmarshal object: %w", err)
	}

	entry := MetaEntry{
		Title:     obj.Title,
		Type:      obj.Type,
		Display:   obj.Display,
		HRef:      obj.HRef,
		NewWindow: obj.NewWindow,
		Theme:     obj.Theme,
	}

	if obj.Items != nil {
		items, err := ParseMetaJSON(obj.Items)
		if err != nil {
			return MetaEntry{}, fmt.Errorf("parse menu items: %w", err)
		}

		entry.Items = items
	}

	return entry, nil
}

// ParseMetaYAML parses a _meta.yaml document, preserving mapping key
// order through the yaml.Node API.
func ParseMetaYAML(data []byte) (*MetaFile, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse meta document: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return newMetaFile(), nil
	}

	return metaFileFromYAML(doc.Content[0])
}

func metaFileFromYAML(node *yaml.Node) (*MetaFile, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("meta document must be a mapping")
	}

	mf := newMetaFile()

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value

		entry, err := metaEntryFromYAML(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("meta entry %q: %w", key, err)
		}

		mf.add(key, entry)
	}

	return mf, nil
}

func metaEntryFromYAML(node *yaml.Node) (MetaEntry, error) {
	if node.Kind == yaml.ScalarNode {
		return MetaEntry{Title: node.Value}, nil
	}

	var obj struct {
		Title     string     `yaml:"title"`
		Type      string     `yaml:"type"`
		Display   string     `yaml:"display"`
		HRef      string     `yaml:"href"`
		NewWindow bool       `yaml:"newWindow"`
		Theme     *Theme     `yaml:"theme"`
		Items     *yaml.Node `yaml:"items"`
	}

	err := node.Decode(&obj)
	if err != nil {
		return MetaEntry{}, fmt.Errorf("decode object: %w", err)
	}

	entry := MetaEntry{
		Title:     obj.Title,
		Type:      obj.Type,
		Display:   obj.Display,
		HRef:      obj.HRef,
		NewWindow: obj.NewWindow,
		Theme:     obj.Theme,
	}

	if obj.Items != nil {
		items, err := metaFileFromYAML(obj.Items)
		if err != nil {
			return MetaEntry{}, fmt.Errorf("parse menu items: %w", err)
		}

		entry.Items = items
	}

	return entry, nil
}
