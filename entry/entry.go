// Package entry provides the password database data model: folder and
// account entries arranged in a tree, and the Store that holds them.
package entry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Errors returned when an entry does not match the data model.
var (
	ErrEntryType  = errors.New("unknown entry type")
	ErrEntryField = errors.New("unknown entry field")
)

// Type identifies the kind of an entry.
type Type string

// Entry types understood by the data model.
const (
	TypeFolder        Type = "folder"
	TypeGeneric       Type = "generic"
	TypeCreditCard    Type = "creditcard"
	TypeCryptoKey     Type = "cryptokey"
	TypeDatabase      Type = "database"
	TypeDoor          Type = "door"
	TypeEmail         Type = "email"
	TypeFTP           Type = "ftp"
	TypePhone         Type = "phone"
	TypeShell         Type = "shell"
	TypeRemoteDesktop Type = "remotedesktop"
	TypeVNC           Type = "vnc"
	TypeWebsite       Type = "website"
)

// FieldOTP is accepted on every account type and holds a TOTP secret.
const FieldOTP = "otp"

// Field is a single typed value of an account entry.
type Field struct {
	// ID is the stable field identifier, e.g. "username".
	ID string
	// Name is the human-readable label.
	Name string
	// Value is the stored value.
	Value string
	// Secret marks values that are masked by default.
	Secret bool
}

// Entry is a folder or an account in the password database.
type Entry struct {
	ID          string
	Type        Type
	Name        string
	Description string
	Notes       string
	Updated     time.Time
	Fields      []Field
	Children    []*Entry
}

// NewFolder creates an empty folder entry.
func NewFolder(name string) *Entry {
	return &Entry{
		ID:      uuid.NewString(),
		Type:    TypeFolder,
		Name:    name,
		Updated: time.Now(),
	}
}

// New creates an account entry of the given type with its field template.
func New(t Type, name string) (*Entry, error) {
	if t == TypeFolder {
		return NewFolder(name), nil
	}
	tmpl, ok := templates[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryType, t)
	}

	e := &Entry{
		ID:      uuid.NewString(),
		Type:    t,
		Name:    name,
		Updated: time.Now(),
		Fields:  make([]Field, 0, len(tmpl.fields)),
	}
	for _, f := range tmpl.fields {
		e.Fields = append(e.Fields, Field{ID: f.id, Name: f.name, Secret: f.secret})
	}
	return e, nil
}

// IsFolder reports whether the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e.Type == TypeFolder
}

// Field returns the field with the given id.
func (e *Entry) Field(id string) (Field, bool) {
	for _, f := range e.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// SetField sets a field value, adding the field from the type template when
// missing. Unknown field ids fail with ErrEntryField.
func (e *Entry) SetField(id, value string) error {
	for i := range e.Fields {
		if e.Fields[i].ID == id {
			e.Fields[i].Value = value
			return nil
		}
	}

	def, err := lookupField(e.Type, id)
	if err != nil {
		return err
	}
	e.Fields = append(e.Fields, Field{ID: def.id, Name: def.name, Value: value, Secret: def.secret})
	return nil
}

// Icon returns the icon name used to display the entry.
func (e *Entry) Icon() string {
	if e.IsFolder() {
		return "folder"
	}
	if tmpl, ok := templates[e.Type]; ok {
		return tmpl.icon
	}
	return "dialog-password"
}

// TypeName returns the display name of the entry type.
func (e *Entry) TypeName() string {
	if e.IsFolder() {
		return "Folder"
	}
	if tmpl, ok := templates[e.Type]; ok {
		return tmpl.name
	}
	return string(e.Type)
}

// Validate checks the entry and its descendants against the data model.
func (e *Entry) Validate() error {
	if e.IsFolder() {
		if len(e.Fields) > 0 {
			return fmt.Errorf("%w: folder %q carries fields", ErrEntryField, e.Name)
		}
		for _, child := range e.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	if _, ok := templates[e.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrEntryType, e.Type)
	}
	if len(e.Children) > 0 {
		return fmt.Errorf("%w: account %q has children", ErrEntryType, e.Name)
	}
	for _, f := range e.Fields {
		if _, err := lookupField(e.Type, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Fields != nil {
		c.Fields = append([]Field(nil), e.Fields...)
	}
	if e.Children != nil {
		c.Children = make([]*Entry, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}
