// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/secrets"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18990", cfg.Server.Listen)
	assert.True(t, cfg.Failover.Enabled)
	assert.Equal(t, "anthropic", cfg.Agent.Primary)
	assert.Equal(t, 20, cfg.Agent.MaxIterations)
	assert.Equal(t, 60*time.Second, cfg.ScanTimeout())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "127.0.0.1:9000"
providers:
  anthropic:
    api_key: sk-ant-test
    model: claude-haiku-4-5
  ollama:
    endpoint: http://127.0.0.1:11434
    timeout_seconds: 120
failover:
  enabled: false
  chain: [openai, ollama]
agent:
  primary: openai
  max_iterations: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.False(t, cfg.Failover.Enabled)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, provider.KindOpenAI, cfg.PrimaryKind())
	assert.Equal(t, []provider.Kind{provider.KindOpenAI, provider.KindOllama}, cfg.Chain())

	settings := cfg.ProviderSettings()
	assert.Equal(t, "sk-ant-test", settings[provider.KindAnthropic].APIKey)
	assert.Equal(t, "claude-haiku-4-5", settings[provider.KindAnthropic].Model)
	assert.Equal(t, 120*time.Second, settings[provider.KindOllama].Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, arguserr.HasCode(err, arguserr.CodeConfigLoadReadFailure))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Listen: "not-an-address"},
		Providers: map[string]ProviderConfig{
			"mystery": {},
			"openai":  {TimeoutSeconds: -5},
		},
		Failover: FailoverConfig{Chain: []string{"anthropic", "nope"}},
		Agent:    AgentConfig{Primary: "anthropic", MaxIterations: 0, MaxTokens: 4096, ScanTimeoutSeconds: 60},
	}

	errs := cfg.Validate()
	assert.Len(t, errs, 5)
}

func TestValidatePortRange(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Listen: "127.0.0.1:99999"},
		Agent:  AgentConfig{Primary: "anthropic", MaxIterations: 20, MaxTokens: 4096, ScanTimeoutSeconds: 60},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "between 1 and 65535")
}

func TestChainUnsetReturnsNil(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.Chain())
}

func TestResolveSecrets(t *testing.T) {
	keyring.MockInit()
	store := secrets.NewKeyringStore()
	require.NoError(t, store.Set("argus", "anthropic-key", "sk-ant-from-keyring"))

	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"anthropic": {APIKey: "keyring://argus/anthropic-key"},
			"openai":    {APIKey: "sk-oai-plain"},
		},
	}

	require.NoError(t, cfg.ResolveSecrets(store))
	assert.Equal(t, "sk-ant-from-keyring", cfg.Providers["anthropic"].APIKey)
	assert.Equal(t, "sk-oai-plain", cfg.Providers["openai"].APIKey)
}

func TestResolveSecretsDanglingURI(t *testing.T) {
	keyring.MockInit()
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"anthropic": {APIKey: "keyring://argus/missing"},
		},
	}

	err := cfg.ResolveSecrets(secrets.NewKeyringStore())
	assert.True(t, arguserr.HasCode(err, arguserr.CodeSecretResolveFailure))
}
