package entry

import "fmt"

type fieldDef struct {
	id     string
	name   string
	secret bool
}

type template struct {
	name   string
	icon   string
	fields []fieldDef
}

var (
	fieldHostname = fieldDef{"hostname", "Hostname", false}
	fieldUsername = fieldDef{"username", "Username", false}
	fieldPassword = fieldDef{"password", "Password", true}
	fieldEmail    = fieldDef{"email", "Email", false}
	fieldPort     = fieldDef{"port", "Port", false}
	fieldPIN      = fieldDef{"pin", "PIN", true}
	fieldOTP      = fieldDef{FieldOTP, "One-time password", true}
)

// Ordered as presented in entry type pickers.
var typeOrder = []Type{
	TypeGeneric, TypeCreditCard, TypeCryptoKey, TypeDatabase, TypeDoor, TypeEmail,
	TypeFTP, TypePhone, TypeShell, TypeRemoteDesktop, TypeVNC, TypeWebsite,
}

var templates = map[Type]template{
	TypeGeneric: {"Generic", "dialog-password", []fieldDef{
		fieldHostname, fieldUsername, fieldPassword,
	}},
	TypeCreditCard: {"Credit card", "contact-new", []fieldDef{
		{"cardtype", "Card type", false},
		{"cardnumber", "Card number", false},
		{"expirydate", "Expiry date", false},
		{"ccv", "CCV number", true},
		fieldPIN,
	}},
	TypeCryptoKey: {"Crypto key", "dialog-password", []fieldDef{
		fieldHostname,
		{"certificate", "Certificate", false},
		{"keyfile", "Key file", false},
		fieldPassword,
	}},
	TypeDatabase: {"Database", "drive-harddisk", []fieldDef{
		fieldHostname, fieldUsername, fieldPassword,
		{"database", "Database", false},
	}},
	TypeDoor: {"Door lock", "system-lock-screen", []fieldDef{
		{"location", "Location", false},
		{"code", "Code", true},
	}},
	TypeEmail: {"Email", "mail-unread", []fieldDef{
		fieldEmail, fieldHostname, fieldUsername, fieldPassword,
	}},
	TypeFTP: {"FTP", "folder-remote", []fieldDef{
		fieldHostname, fieldPort, fieldUsername, fieldPassword,
	}},
	TypePhone: {"Phone", "phone", []fieldDef{
		{"phonenumber", "Phone number", false},
		fieldPIN,
	}},
	TypeShell: {"Shell", "utilities-terminal", []fieldDef{
		fieldHostname,
		{"domain", "Domain", false},
		fieldUsername, fieldPassword,
	}},
	TypeRemoteDesktop: {"Remote desktop", "preferences-desktop-remote-desktop", []fieldDef{
		fieldHostname, fieldPort, fieldUsername, fieldPassword,
	}},
	TypeVNC: {"VNC", "preferences-desktop-remote-desktop", []fieldDef{
		fieldHostname, fieldPort, fieldUsername, fieldPassword,
	}},
	TypeWebsite: {"Website", "web-browser", []fieldDef{
		{"url", "URL", false},
		fieldUsername, fieldEmail, fieldPassword,
	}},
}

// Types returns the account types in display order.
func Types() []Type {
	return append([]Type(nil), typeOrder...)
}

// ParseType converts a type identifier into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if t == TypeFolder {
		return t, nil
	}
	if _, ok := templates[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrEntryType, s)
	}
	return t, nil
}

// lookupField resolves a field id for an account type.
func lookupField(t Type, id string) (fieldDef, error) {
	tmpl, ok := templates[t]
	if !ok {
		return fieldDef{}, fmt.Errorf("%w: %q", ErrEntryType, t)
	}
	if id == FieldOTP {
		return fieldOTP, nil
	}
	for _, f := range tmpl.fields {
		if f.id == id {
			return f, nil
		}
	}
	return fieldDef{}, fmt.Errorf("%w: %q on %s", ErrEntryField, id, t)
}
