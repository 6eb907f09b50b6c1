// Package vault provides the encrypted data file format of the password
// database and DataFile, which loads such files and watches them for
// changes.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/yllada/revelation-indicator/entry"
	"golang.org/x/crypto/argon2"
)

// Errors describing why a data file could not be opened.
var (
	ErrFormat   = errors.New("invalid file format")
	ErrData     = errors.New("unknown data")
	ErrPassword = errors.New("incorrect password")
	ErrVersion  = errors.New("unsupported data version")
)

const (
	magic = "RVLT"
	// FormatVersion is the newest file format this package reads and writes.
	FormatVersion = 1

	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	// magic, version, time, memory, threads, salt, nonce
	headerSize = len(magic) + 1 + 4 + 4 + 1 + saltSize + nonceSize

	// Upper bound on the Argon2 memory a file may request, in KiB.
	maxMemoryKB = 4 * 1024 * 1024
)

// Params holds the Argon2id key derivation parameters stored in a file.
type Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultParams returns the key derivation parameters for new files.
func DefaultParams() Params {
	return Params{
		Time:     3,
		MemoryKB: 64 * 1024,
		Threads:  4,
	}
}

func (p Params) valid() bool {
	return p.Time > 0 && p.Threads > 0 &&
		p.MemoryKB >= 8*uint32(p.Threads) && p.MemoryKB <= maxMemoryKB
}

// Header is the plaintext prefix of a data file.
type Header struct {
	Version uint8
	Params  Params
	Salt    []byte
	Nonce   []byte
}

// ParseHeader validates the plaintext header of a data file without
// needing the password.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < len(magic)+1 || string(data[:len(magic)]) != magic {
		return Header{}, ErrFormat
	}

	h := Header{Version: data[len(magic)]}
	switch {
	case h.Version == 0:
		return Header{}, ErrFormat
	case h.Version > FormatVersion:
		return Header{}, fmt.Errorf("%w: file version %d, newest supported %d", ErrVersion, h.Version, FormatVersion)
	}

	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: truncated header", ErrFormat)
	}

	off := len(magic) + 1
	h.Params.Time = binary.BigEndian.Uint32(data[off:])
	h.Params.MemoryKB = binary.BigEndian.Uint32(data[off+4:])
	h.Params.Threads = data[off+8]
	off += 9
	h.Salt = data[off : off+saltSize]
	h.Nonce = data[off+saltSize : off+saltSize+nonceSize]

	if !h.Params.valid() {
		return Header{}, fmt.Errorf("%w: invalid key derivation parameters", ErrFormat)
	}
	return h, nil
}

func (h Header) marshal() []byte {
	buf := make([]byte, 0, headerSize)
	buf = append(buf, magic...)
	buf = append(buf, h.Version)
	buf = binary.BigEndian.AppendUint32(buf, h.Params.Time)
	buf = binary.BigEndian.AppendUint32(buf, h.Params.MemoryKB)
	buf = append(buf, h.Params.Threads)
	buf = append(buf, h.Salt...)
	buf = append(buf, h.Nonce...)
	return buf
}

func newAEAD(password string, h Header) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), h.Salt, h.Params.Time, h.Params.MemoryKB, h.Params.Threads, keySize)
	defer wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encode serialises and encrypts the store with password.
func Encode(store *entry.Store, password string, p Params) ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("invalid key derivation parameters: %+v", p)
	}

	plaintext, err := MarshalEntries(store)
	if err != nil {
		return nil, err
	}
	defer wipe(plaintext)

	h := Header{
		Version: FormatVersion,
		Params:  p,
		Salt:    make([]byte, saltSize),
		Nonce:   make([]byte, nonceSize),
	}
	if _, err := io.ReadFull(rand.Reader, h.Salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, h.Nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	aead, err := newAEAD(password, h)
	if err != nil {
		return nil, err
	}

	header := h.marshal()
	return aead.Seal(header, h.Nonce, plaintext, header), nil
}

// Decode decrypts and parses a data file.
func Decode(data []byte, password string) (*entry.Store, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(password, h)
	if err != nil {
		return nil, err
	}
	if len(data) < headerSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: truncated body", ErrFormat)
	}

	plaintext, err := aead.Open(nil, h.Nonce, data[headerSize:], data[:headerSize])
	if err != nil {
		return nil, ErrPassword
	}
	defer wipe(plaintext)

	return UnmarshalEntries(plaintext)
}

// wipe zeroes key material once it is no longer needed.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
