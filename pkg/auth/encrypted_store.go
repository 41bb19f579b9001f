package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnvVar overrides the generated passphrase of the encrypted store
const PassphraseEnvVar = "ASSETFETCH_PASSPHRASE"

const (
	tokenFileVersion = 2
	saltSize         = 16
	keySize          = 32
	kdfRounds        = 210000
)

// tokenFile is the on-disk layout. Hosts are stored in clear; each token is
// sealed on its own with the host as additional data, so a token copied
// under another host no longer opens.
type tokenFile struct {
	Version int                    `json:"version"`
	Salt    []byte                 `json:"salt"`
	Tokens  map[string]sealedToken `json:"tokens"`
}

type sealedToken struct {
	Sealed  []byte    `json:"sealed"`
	Updated time.Time `json:"updated"`
}

// EncryptedFileStore keeps one AES-GCM sealed token per upstream host in a
// single file
type EncryptedFileStore struct {
	path       string
	passphrase []byte

	mu      sync.Mutex
	keySalt []byte
	aead    cipher.AEAD
}

// NewEncryptedFileStore opens the token file at path. The file itself is
// created by the first Store.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store seals the token for cred.Host, replacing any previous one
func (e *EncryptedFileStore) Store(cred *Credential) error {
	if cred == nil || cred.Host == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := e.read()
	if err != nil {
		return err
	}

	aead, err := e.cipherFor(file.Salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	updated := cred.LastModified
	if updated.IsZero() {
		updated = time.Now()
	}
	file.Tokens[cred.Host] = sealedToken{
		Sealed:  aead.Seal(nonce, nonce, []byte(cred.Token), []byte(cred.Host)),
		Updated: updated.UTC(),
	}

	return e.write(file)
}

// Retrieve opens the token stored for host
func (e *EncryptedFileStore) Retrieve(host string) (*Credential, error) {
	if host == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := e.read()
	if err != nil {
		return nil, err
	}
	entry, ok := file.Tokens[host]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return e.open(file.Salt, host, entry)
}

// List opens every stored token, sorted by host
func (e *EncryptedFileStore) List() ([]*Credential, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := e.read()
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(file.Tokens))
	for host := range file.Tokens {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	creds := make([]*Credential, 0, len(hosts))
	for _, host := range hosts {
		cred, err := e.open(file.Salt, host, file.Tokens[host])
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Delete drops the token for host. The file is removed with its last token.
func (e *EncryptedFileStore) Delete(host string) error {
	if host == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := file.Tokens[host]; !ok {
		return ErrCredentialsNotFound
	}
	delete(file.Tokens, host)

	if len(file.Tokens) == 0 {
		return os.Remove(e.path)
	}
	return e.write(file)
}

// read loads the token file, or returns an empty one with a fresh salt when
// nothing has been stored yet
func (e *EncryptedFileStore) read() (*tokenFile, error) {
	content, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		return &tokenFile{Version: tokenFileVersion, Salt: salt, Tokens: map[string]sealedToken{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var file tokenFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if file.Version != tokenFileVersion {
		return nil, fmt.Errorf("unsupported token file version %d", file.Version)
	}
	if len(file.Salt) == 0 {
		return nil, errors.New("token file has no salt")
	}
	if file.Tokens == nil {
		file.Tokens = map[string]sealedToken{}
	}
	return &file, nil
}

// write replaces the token file through a temp file in the same directory
func (e *EncryptedFileStore) write(file *tokenFile) error {
	content, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".tokens.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return os.Rename(tmp.Name(), e.path)
}

// open decrypts one entry
func (e *EncryptedFileStore) open(salt []byte, host string, entry sealedToken) (*Credential, error) {
	aead, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	n := aead.NonceSize()
	if len(entry.Sealed) < n {
		return nil, fmt.Errorf("failed to decrypt token for %s: sealed data too short", host)
	}
	token, err := aead.Open(nil, entry.Sealed[:n], entry.Sealed[n:], []byte(host))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token for %s: %w", host, err)
	}

	return &Credential{Host: host, Token: string(token), LastModified: entry.Updated}, nil
}

// cipherFor derives the key for salt, reusing the last derivation
func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	if e.aead != nil && bytes.Equal(e.keySalt, salt) {
		return e.aead, nil
	}

	key := pbkdf2.Key(e.passphrase, salt, kdfRounds, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	e.keySalt = append([]byte(nil), salt...)
	e.aead = aead
	return aead, nil
}

// loadPassphrase reads PassphraseEnvVar, or the passphrase file next to the
// other assetfetch settings, generating that file on first use
func loadPassphrase() ([]byte, error) {
	if pass := os.Getenv(PassphraseEnvVar); pass != "" {
		return []byte(pass), nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return content, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := []byte(base64.RawURLEncoding.EncodeToString(raw))

	if err := os.WriteFile(path, passphrase, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
