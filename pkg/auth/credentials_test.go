package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "raw.githubusercontent.com"

func TestManagerStoreRetrieveDelete(t *testing.T) {
	mock := NewMockStore()
	manager := NewManagerWithStores(mock)

	cred := &Credential{Host: testHost, Token: "ghp_abcdefghijklmnop"}
	require.NoError(t, manager.Store(cred))
	assert.False(t, cred.LastModified.IsZero(), "LastModified should be stamped")

	got, err := manager.Retrieve(testHost)
	require.NoError(t, err)
	assert.Equal(t, "ghp_abcdefghijklmnop", got.Token)

	creds, err := manager.List()
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, testHost, creds[0].Host)

	require.NoError(t, manager.Delete(testHost))
	assert.Equal(t, 0, mock.Count())

	_, err = manager.Retrieve(testHost)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete(testHost)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Credential{Token: "x"}))
	assert.Error(t, manager.Store(&Credential{Host: testHost, Token: "   "}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keyring locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(&Credential{Host: testHost, Token: "token-value-1234"}))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerStoreAllFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("disk full")

	err := NewManagerWithStores(broken, NewEnvironmentStore()).Store(&Credential{Host: testHost, Token: "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = NewManagerWithStores().Store(&Credential{Host: testHost, Token: "abc"})
	assert.EqualError(t, err, "no available credential stores")
}

func TestManagerDeleteError(t *testing.T) {
	mock := NewMockStore()
	mock.DeleteError = errors.New("permission denied")

	err := NewManagerWithStores(mock).Delete(testHost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestTokenFor(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	mock := NewMockStore()
	manager := NewManagerWithStores(NewEnvironmentStore(), mock)

	assert.Empty(t, manager.TokenFor("https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/exercises"))

	require.NoError(t, manager.Store(&Credential{Host: testHost, Token: "stored-token"}))
	assert.Equal(t, 1, mock.Count(), "the environment store is read-only")
	assert.Equal(t, "stored-token", manager.TokenFor("https://RAW.githubusercontent.com/x"))
	assert.Empty(t, manager.TokenFor("not a url"))

	// The environment token overrides stored ones and applies to every host
	t.Setenv(TokenEnvVar, "env-token")
	assert.Equal(t, "env-token", manager.TokenFor("https://raw.githubusercontent.com/x"))
	assert.Equal(t, "env-token", manager.TokenFor("https://mirror.example.com/exercises"))
}

func TestHostFromURL(t *testing.T) {
	host, err := HostFromURL("https://Raw.GitHubUserContent.com/yuhonas/free-exercise-db/main/exercises")
	require.NoError(t, err)
	assert.Equal(t, testHost, host)

	host, err = HostFromURL("http://localhost:8080/exercises")
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", host)

	_, err = HostFromURL("exercises/")
	assert.Error(t, err)

	_, err = HostFromURL("http://[::1")
	assert.Error(t, err)
}

func TestSanitizeCredential(t *testing.T) {
	assert.Nil(t, SanitizeCredential(nil))

	cred := &Credential{Host: testHost, Token: "ghp_1234567890abcdef"}
	sanitized := SanitizeCredential(cred)

	assert.Equal(t, testHost, sanitized.Host)
	assert.Equal(t, "ghp_...cdef", sanitized.Token)
	assert.Equal(t, "ghp_1234567890abcdef", cred.Token, "original must not change")
	assert.Equal(t, "********", MaskToken("short"))
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(TokenEnvVar, "")
	_, err := store.Retrieve(testHost)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	creds, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, creds)

	t.Setenv(TokenEnvVar, "from-env")
	cred, err := store.Retrieve(testHost)
	require.NoError(t, err)
	assert.Equal(t, testHost, cred.Host)
	assert.Equal(t, "from-env", cred.Token)

	creds, err = store.List()
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "*", creds[0].Host)

	assert.ErrorIs(t, store.Store(cred), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(testHost), ErrStoreUnavailable)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "test-passphrase")
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store.Retrieve(testHost)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Credential{Host: testHost, Token: "secret-token-value"}))
	require.NoError(t, store.Store(&Credential{Host: "mirror.example.com", Token: "mirror-token"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "secret-token-value")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A fresh store with the same passphrase reads the same data
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	cred, err := reopened.Retrieve(testHost)
	require.NoError(t, err)
	assert.Equal(t, "secret-token-value", cred.Token)

	creds, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "mirror.example.com", creds[0].Host)
	assert.Equal(t, "mirror-token", creds[0].Token)
	assert.Equal(t, testHost, creds[1].Host)
	assert.False(t, creds[1].LastModified.IsZero())

	require.NoError(t, reopened.Delete(testHost))
	require.NoError(t, reopened.Delete("mirror.example.com"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should be removed with the last credential")

	assert.ErrorIs(t, reopened.Delete(testHost), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(PassphraseEnvVar, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Host: testHost, Token: "secret"}))

	t.Setenv(PassphraseEnvVar, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = other.Retrieve(testHost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")
}

func TestEncryptedFileStoreBindsTokenToHost(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Host: testHost, Token: "host-bound"}))

	var file tokenFile
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(content, &file))
	assert.Equal(t, tokenFileVersion, file.Version)
	require.Contains(t, file.Tokens, testHost)

	// Copy the sealed token under another host
	file.Tokens["mirror.example.com"] = file.Tokens[testHost]
	content, err = json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0600))

	_, err = store.Retrieve("mirror.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")

	cred, err := store.Retrieve(testHost)
	require.NoError(t, err)
	assert.Equal(t, "host-bound", cred.Token)
}

func TestEncryptedFileStoreRejectsUnknownVersion(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"salt":"c2FsdA==","encrypted":"AAAA"}`), 0600))

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store.Retrieve(testHost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported token file version")
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", configHome)
	t.Setenv(PassphraseEnvVar, "")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Host: testHost, Token: "generated"}))

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	cred, err := reopened.Retrieve(testHost)
	require.NoError(t, err)
	assert.Equal(t, "generated", cred.Token)
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf, "mirror.example.com")

	out := buf.String()
	assert.Contains(t, out, "mirror.example.com")
	assert.Contains(t, out, TokenEnvVar)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 72)))
}
