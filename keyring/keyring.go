// Package keyring provides secure storage for remembered database
// passwords. It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yllada/revelation-indicator/common"
	"github.com/zalando/go-keyring"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "revelation-indicator"
	checkKey    = "revelation-indicator-check"
)

// Keyring stores secrets keyed by data file path. It implements
// common.CredentialStore.
type Keyring struct {
	mu        sync.RWMutex
	useLocal  bool
	local     map[string]string
	localFile string
	key       []byte
	// known tracks the keys stored in the system keyring so Clear can
	// remove them; go-keyring has no enumeration.
	known map[string]struct{}
}

var _ common.CredentialStore = (*Keyring)(nil)

// New tests the system keyring and returns a Keyring backed by it, or by
// an encrypted file in dir when the secret service is unavailable.
func New(dir string) *Keyring {
	k := &Keyring{
		local:     make(map[string]string),
		known:     make(map[string]struct{}),
		localFile: filepath.Join(dir, common.CredentialsFileName),
	}

	if err := keyring.Set(serviceName, checkKey, "check"); err == nil {
		keyring.Delete(serviceName, checkKey)
		common.LogDebug("Using system keyring for remembered passwords")
		return k
	}

	common.LogInfo("System keyring unavailable, using encrypted local storage")
	k.enableLocal()
	return k
}

func (k *Keyring) enableLocal() {
	k.useLocal = true

	// Key derived from machine-specific data
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID(), os.Getuid())
	hash := sha256.Sum256([]byte(keyData))
	k.key = hash[:]

	k.loadLocal()
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

func (k *Keyring) loadLocal() {
	data, err := os.ReadFile(k.localFile)
	if err != nil {
		return
	}

	decrypted, err := k.decrypt(data)
	if err != nil {
		common.LogWarn("Ignoring unreadable credential file: %v", err)
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	json.Unmarshal(decrypted, &k.local)
}

func (k *Keyring) saveLocal() error {
	k.mu.RLock()
	data, err := json.Marshal(k.local)
	k.mu.RUnlock()
	if err != nil {
		return err
	}

	encrypted, err := k.encrypt(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(k.localFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(k.localFile, encrypted, 0600)
}

func (k *Keyring) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, common.WrapError(common.ErrEncryption, err.Error())
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.WrapError(common.ErrEncryption, err.Error())
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, common.WrapError(common.ErrEncryption, err.Error())
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (k *Keyring) decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, common.ErrDecryption
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.WrapError(common.ErrDecryption, err.Error())
	}
	return plaintext, nil
}

// Store saves a secret under key.
func (k *Keyring) Store(key, secret string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	if !k.useLocal {
		err := keyring.Set(serviceName, key, secret)
		if err == nil {
			k.mu.Lock()
			k.known[key] = struct{}{}
			k.mu.Unlock()
			return nil
		}
		common.LogWarn("System keyring rejected secret, falling back to local storage: %v", err)
		k.enableLocal()
	}

	k.mu.Lock()
	k.local[key] = secret
	k.mu.Unlock()
	if err := k.saveLocal(); err != nil {
		return common.WrapError(common.ErrCredentialStorage, err.Error())
	}
	return nil
}

// Get retrieves the secret stored under key.
func (k *Keyring) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	if !k.useLocal {
		secret, err := keyring.Get(serviceName, key)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			common.LogDebug("System keyring lookup failed: %v", err)
		}
	}

	k.mu.RLock()
	secret, exists := k.local[key]
	k.mu.RUnlock()
	if !exists {
		return "", common.ErrCredentialsNotFound
	}
	return secret, nil
}

// Delete removes the secret stored under key.
func (k *Keyring) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if !k.useLocal {
		if err := keyring.Delete(serviceName, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return err
		}
		k.mu.Lock()
		delete(k.known, key)
		k.mu.Unlock()
	}

	k.mu.Lock()
	_, hadLocal := k.local[key]
	delete(k.local, key)
	k.mu.Unlock()
	if hadLocal {
		return k.saveLocal()
	}
	return nil
}

// Clear removes every secret this Keyring stored.
func (k *Keyring) Clear() error {
	k.mu.Lock()
	known := make([]string, 0, len(k.known))
	for key := range k.known {
		known = append(known, key)
	}
	k.known = make(map[string]struct{})
	hadLocal := len(k.local) > 0
	k.local = make(map[string]string)
	k.mu.Unlock()

	for _, key := range known {
		keyring.Delete(serviceName, key)
	}
	if hadLocal {
		return k.saveLocal()
	}
	return nil
}

// Exists reports whether a secret is stored under key.
func (k *Keyring) Exists(key string) bool {
	_, err := k.Get(key)
	return err == nil
}
