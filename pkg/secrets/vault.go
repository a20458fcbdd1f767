// Package secrets loads credentials such as STEDI_API_KEY from a HashiCorp
// Vault KV mount into the process environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

const maxVaultResponseBytes = 1 << 20

// VaultConfig locates one KV secret
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration

	// Overwrite replaces variables that are already set
	Overwrite bool
}

// VaultResult reports what Apply did
type VaultResult struct {
	Path    string
	Loaded  []string
	Skipped []string
}

// LoadVaultConfigFromEnv reads the VAULT_* variables
func LoadVaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     "secret",
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if mount := os.Getenv("VAULT_MOUNT"); mount != "" {
		cfg.Mount = mount
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if d, err := time.ParseDuration(os.Getenv("VAULT_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	return cfg
}

// Apply fetches the secret and exports each key as an environment variable.
// A disabled config is a no-op.
func Apply(ctx context.Context, cfg VaultConfig) (*VaultResult, error) {
	result := &VaultResult{Path: cfg.Path}
	if !cfg.Enabled {
		return result, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return result, apperrors.NewConfigurationError("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)", nil)
	}

	data, err := fetch(ctx, cfg)
	if err != nil {
		return result, err
	}

	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return result, apperrors.NewConfigurationError(fmt.Sprintf("failed to export %s", key), err)
		}
		result.Loaded = append(result.Loaded, key)
	}
	return result, nil
}

func secretURL(cfg VaultConfig) string {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")
	if cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
}

func fetch(ctx context.Context, cfg VaultConfig) (map[string]json.RawMessage, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, secretURL(cfg), nil)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid vault address", err)
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("vault request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVaultResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read vault response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamError("vault fetch failed", resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	// KV v1 keeps values under data, v2 under data.data
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.NewUpstreamError("vault response is not JSON", resp.StatusCode, "", err)
	}
	if cfg.KVVersion != 1 {
		var inner struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(envelope.Data, &inner); err != nil {
			return nil, apperrors.NewUpstreamError("vault KV v2 response missing data", resp.StatusCode, "", err)
		}
		envelope.Data = inner.Data
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data == nil {
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("vault secret %s has no data", cfg.Path), resp.StatusCode, "", err)
	}
	return data, nil
}

// stringify renders JSON strings unquoted and everything else as JSON
func stringify(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
