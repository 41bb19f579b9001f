package auth

import (
	"os"
	"time"
)

// TokenEnvVar holds a token that applies to every host
const TokenEnvVar = "ASSETFETCH_TOKEN"

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token for any host
func (e *EnvironmentStore) Retrieve(host string) (*Credential, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if host == "" {
		host = "*"
	}

	return &Credential{
		Host:         host,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single wildcard credential if the variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(host string) error {
	return ErrStoreUnavailable
}
