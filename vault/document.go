package vault

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yllada/revelation-indicator/entry"
	"gopkg.in/yaml.v3"
)

// documentVersion is the newest plaintext schema version.
const documentVersion = 1

// document is the YAML schema of the decrypted payload. The same schema is
// accepted unencrypted for imports.
type document struct {
	Version int        `yaml:"version"`
	Entries []docEntry `yaml:"entries"`
}

type docEntry struct {
	ID          string     `yaml:"id,omitempty"`
	Type        string     `yaml:"type"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Notes       string     `yaml:"notes,omitempty"`
	Updated     time.Time  `yaml:"updated,omitempty"`
	Fields      []docField `yaml:"fields,omitempty"`
	Children    []docEntry `yaml:"children,omitempty"`
}

type docField struct {
	ID    string `yaml:"id"`
	Value string `yaml:"value"`
}

// MarshalEntries encodes the store as a plaintext YAML document.
func MarshalEntries(store *entry.Store) ([]byte, error) {
	doc := document{Version: documentVersion}
	for _, e := range store.Roots() {
		doc.Entries = append(doc.Entries, toDoc(e))
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("serializing entries: %w", err)
	}
	return data, nil
}

// UnmarshalEntries parses a plaintext YAML document into a store.
// Schema violations are reported as ErrData wrapping the entry error.
func UnmarshalEntries(data []byte) (*entry.Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrData, err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("%w: data version %d", ErrVersion, doc.Version)
	}

	store := entry.NewStore()
	for _, de := range doc.Entries {
		e, err := fromDoc(de)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrData, err)
		}
		store.Add(nil, e)
	}
	return store, nil
}

func toDoc(e *entry.Entry) docEntry {
	de := docEntry{
		ID:          e.ID,
		Type:        string(e.Type),
		Name:        e.Name,
		Description: e.Description,
		Notes:       e.Notes,
		Updated:     e.Updated.UTC(),
	}
	for _, f := range e.Fields {
		if f.Value == "" {
			continue
		}
		de.Fields = append(de.Fields, docField{ID: f.ID, Value: f.Value})
	}
	for _, child := range e.Children {
		de.Children = append(de.Children, toDoc(child))
	}
	return de
}

func fromDoc(de docEntry) (*entry.Entry, error) {
	t, err := entry.ParseType(de.Type)
	if err != nil {
		return nil, err
	}

	e, err := entry.New(t, de.Name)
	if err != nil {
		return nil, err
	}
	if de.ID != "" {
		e.ID = de.ID
	} else {
		e.ID = uuid.NewString()
	}
	e.Description = de.Description
	e.Notes = de.Notes
	e.Updated = de.Updated

	if t == entry.TypeFolder {
		if len(de.Fields) > 0 {
			return nil, fmt.Errorf("%w: folder %q carries fields", entry.ErrEntryField, de.Name)
		}
		for _, dc := range de.Children {
			child, err := fromDoc(dc)
			if err != nil {
				return nil, err
			}
			e.Children = append(e.Children, child)
		}
		return e, nil
	}

	if len(de.Children) > 0 {
		return nil, fmt.Errorf("%w: account %q has children", entry.ErrEntryType, de.Name)
	}
	for _, f := range de.Fields {
		if err := e.SetField(f.ID, f.Value); err != nil {
			return nil, err
		}
	}
	return e, nil
}
