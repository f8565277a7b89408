// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package secrets stores provider credentials in the OS keyring and
// resolves keyring://service/key URIs in configuration, so API keys never
// have to live in config files.
package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

const keyringScheme = "keyring://"

// Store is the secret storage capability. The keyring implementation is
// the default; tests substitute an in-memory one.
type Store interface {
	Set(service, key, value string) error
	Get(service, key string) (string, error)
	Delete(service, key string) error
}

// KeyringStore implements Store on the OS keyring: Keychain on macOS,
// secret-service on Linux, Credential Manager on Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Set(service, key, value string) error {
	if service == "" || key == "" {
		return arguserr.New(arguserr.CodeSecretInvalidInput, "secret set: service and key must not be empty")
	}
	if err := keyring.Set(service, key, value); err != nil {
		return arguserr.Wrapf(err, arguserr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Get(service, key string) (string, error) {
	if service == "" || key == "" {
		return "", arguserr.New(arguserr.CodeSecretInvalidInput, "secret get: service and key must not be empty")
	}
	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", arguserr.Errorf(arguserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", arguserr.Wrapf(err, arguserr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if service == "" || key == "" {
		return arguserr.New(arguserr.CodeSecretInvalidInput, "secret delete: service and key must not be empty")
	}
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return arguserr.Errorf(arguserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return arguserr.Wrapf(err, arguserr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

// IsURI reports whether value uses the keyring:// scheme.
func IsURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseURI extracts service and key from keyring://service/key.
func ParseURI(uri string) (service, key string, err error) {
	if !IsURI(uri) {
		return "", "", arguserr.Errorf(arguserr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", arguserr.Errorf(arguserr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return parts[0], parts[1], nil
}

// Resolve turns a keyring:// URI into its secret value. Non-URI values
// pass through unchanged.
func Resolve(store Store, value string) (string, error) {
	if !IsURI(value) {
		return value, nil
	}

	service, key, err := ParseURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Get(service, key)
	if err != nil {
		return "", arguserr.Wrapf(err, arguserr.CodeSecretResolveFailure, "resolving keyring URI %q", value)
	}
	return secret, nil
}

// ResolveSettings resolves keyring:// URIs in every provider's APIKey as
// a post-load step. The first resolution failure is returned; the caller
// decides whether a dangling URI is fatal.
func ResolveSettings(store Store, settings provider.Settings) error {
	for kind, cfg := range settings {
		resolved, err := Resolve(store, cfg.APIKey)
		if err != nil {
			return arguserr.Wrapf(err, arguserr.CodeSecretResolveFailure,
				"resolving api key for provider %s", kind)
		}
		cfg.APIKey = resolved
		settings[kind] = cfg
	}
	return nil
}
