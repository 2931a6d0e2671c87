package store

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keyring service name for docpipe secrets.
const KeyringService = "docpipe"

const apiKeyUser = "api-key"

// ErrNoCredential is returned when no API credential is stored.
var ErrNoCredential = errors.New("no stored credential")

// Credentials stores the chat API key in the OS keyring.
type Credentials struct {
	service string
	user    string
}

// NewCredentials creates a Credentials bound to the docpipe keyring service.
func NewCredentials() *Credentials {
	return &Credentials{service: KeyringService, user: apiKeyUser}
}

// Get returns the stored API key.
func (c *Credentials) Get() (string, error) {
	secret, err := keyring.Get(c.service, c.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return secret, nil
}

// Set stores the API key, replacing any previous one.
func (c *Credentials) Set(secret string) error {
	if err := keyring.Set(c.service, c.user, secret); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// Delete removes the stored API key. Deleting a missing key is not an error.
func (c *Credentials) Delete() error {
	err := keyring.Delete(c.service, c.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keyring entry: %w", err)
	}
	return nil
}
