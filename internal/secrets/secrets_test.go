// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

func newMockStore(t *testing.T) *KeyringStore {
	t.Helper()
	keyring.MockInit()
	return NewKeyringStore()
}

func TestKeyringStoreRoundTrip(t *testing.T) {
	store := newMockStore(t)

	require.NoError(t, store.Set("argus", "anthropic-key", "sk-ant-test"))

	val, err := store.Get("argus", "anthropic-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", val)

	require.NoError(t, store.Delete("argus", "anthropic-key"))

	_, err = store.Get("argus", "anthropic-key")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretNotFound))
}

func TestKeyringStoreRejectsEmptyInput(t *testing.T) {
	store := newMockStore(t)

	err := store.Set("", "key", "value")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretInvalidInput))

	_, err = store.Get("argus", "")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretInvalidInput))

	err = store.Delete("", "")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretInvalidInput))
}

func TestKeyringStoreDeleteMissing(t *testing.T) {
	store := newMockStore(t)

	err := store.Delete("argus", "never-stored")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretNotFound))
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"keyring://argus/anthropic-key", "argus", "anthropic-key", false},
		{"keyring://argus/nested/key", "argus", "nested/key", false},
		{"keyring://argus/", "", "", true},
		{"keyring:///key", "", "", true},
		{"keyring://argus", "", "", true},
		{"vault://argus/key", "", "", true},
		{"sk-ant-plain-value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			service, key, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, service)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolvePassesThroughPlainValues(t *testing.T) {
	store := newMockStore(t)

	val, err := Resolve(store, "sk-ant-plain")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-plain", val)

	val, err = Resolve(store, "")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestResolveFetchesFromStore(t *testing.T) {
	store := newMockStore(t)
	require.NoError(t, store.Set("argus", "openai-key", "sk-oai-test"))

	val, err := Resolve(store, "keyring://argus/openai-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-oai-test", val)
}

func TestResolveMissingSecret(t *testing.T) {
	store := newMockStore(t)

	_, err := Resolve(store, "keyring://argus/missing")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretResolveFailure))
}

func TestResolveSettings(t *testing.T) {
	store := newMockStore(t)
	require.NoError(t, store.Set("argus", "anthropic-key", "sk-ant-resolved"))

	settings := provider.Settings{
		provider.KindAnthropic: {APIKey: "keyring://argus/anthropic-key"},
		provider.KindOpenAI:    {APIKey: "sk-oai-plain"},
		provider.KindOllama:    {Endpoint: "http://127.0.0.1:11434"},
	}

	require.NoError(t, ResolveSettings(store, settings))
	assert.Equal(t, "sk-ant-resolved", settings[provider.KindAnthropic].APIKey)
	assert.Equal(t, "sk-oai-plain", settings[provider.KindOpenAI].APIKey)
	assert.Empty(t, settings[provider.KindOllama].APIKey)
}

func TestResolveSettingsDanglingURI(t *testing.T) {
	store := newMockStore(t)

	settings := provider.Settings{
		provider.KindAnthropic: {APIKey: "keyring://argus/missing"},
	}

	err := ResolveSettings(store, settings)
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretResolveFailure))
}
