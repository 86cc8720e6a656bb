// Package secrets encrypts individual config values with age.
//
// An encrypted value is written as ENC[<base64(age-ciphertext)>] and may
// appear anywhere a string is accepted in lorekeep.toml, typically for
// agent.api_key, knowledge.embedding_api_key, and auth.api_keys.
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/spf13/viper"
)

const (
	encPrefix = "ENC["
	encSuffix = "]"

	// DefaultKeyFilename is the identity file looked up under the config dir.
	DefaultKeyFilename = "age.key"

	// EnvAgeKey holds a raw AGE-SECRET-KEY-1... identity.
	EnvAgeKey = "LOREKEEP_AGE_KEY"

	// EnvAgeKeyFile holds a path to an age identity file.
	EnvAgeKeyFile = "LOREKEEP_AGE_KEY_FILE"
)

// ErrNoIdentity is returned when encrypted values are present but no
// identity could be resolved.
var ErrNoIdentity = errors.New("no age identity configured")

// IsEncrypted reports whether value is wrapped in ENC[...] with a non-empty payload.
func IsEncrypted(value string) bool {
	return len(value) > len(encPrefix)+len(encSuffix) &&
		strings.HasPrefix(value, encPrefix) && strings.HasSuffix(value, encSuffix)
}

// Encrypt seals plaintext for recipients and wraps the result in ENC[...].
func Encrypt(plaintext string, recipients ...age.Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return "", fmt.Errorf("create age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("write plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize encryption: %w", err)
	}
	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt opens an ENC[...] value with any of identities.
func Decrypt(value string, identities ...age.Identity) (string, error) {
	if !IsEncrypted(value) {
		return "", errors.New("value is not wrapped in ENC[...]")
	}
	raw, err := base64.StdEncoding.DecodeString(value[len(encPrefix) : len(value)-len(encSuffix)])
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), identities...)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted data: %w", err)
	}
	return string(plaintext), nil
}

// GenerateKeyPair returns a fresh X25519 identity.
func GenerateKeyPair() (*age.X25519Identity, error) {
	return age.GenerateX25519Identity()
}

// ParseIdentity parses a raw AGE-SECRET-KEY-1... string.
func ParseIdentity(raw string) (*age.X25519Identity, error) {
	return age.ParseX25519Identity(strings.TrimSpace(raw))
}

// LoadIdentity reads every identity in an age key file.
func LoadIdentity(path string) ([]age.Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identity file: %w", err)
	}
	defer f.Close()

	ids, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse identity file %s: %w", path, err)
	}
	return ids, nil
}

// DefaultKeyPath is ~/.config/lorekeep/age.key.
func DefaultKeyPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "lorekeep", DefaultKeyFilename)
}

// ResolveIdentity finds the identity used to decrypt config values, in order:
// LOREKEEP_AGE_KEY, LOREKEEP_AGE_KEY_FILE, the secrets.identity key of v, and
// finally DefaultKeyPath if that file exists. It returns (nil, nil) when
// nothing is configured.
func ResolveIdentity(v *viper.Viper) ([]age.Identity, error) {
	if raw := os.Getenv(EnvAgeKey); raw != "" {
		id, err := ParseIdentity(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvAgeKey, err)
		}
		return []age.Identity{id}, nil
	}
	if path := os.Getenv(EnvAgeKeyFile); path != "" {
		return LoadIdentity(path)
	}
	if v != nil {
		if path := v.GetString("secrets.identity"); path != "" {
			return LoadIdentity(expandHome(path))
		}
	}

	path := DefaultKeyPath()
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return LoadIdentity(path)
}

// EncryptedKeys lists the viper keys whose value is ENC[...]. String slices
// are inspected element by element.
func EncryptedKeys(v *viper.Viper) []string {
	var keys []string
	for _, key := range v.AllKeys() {
		if encryptedValue(v.Get(key)) {
			keys = append(keys, key)
		}
	}
	return keys
}

// DecryptViper replaces every ENC[...] value in v with its plaintext. Errors
// name the key, never the value.
func DecryptViper(v *viper.Viper, identities []age.Identity) error {
	keys := EncryptedKeys(v)
	if len(keys) == 0 {
		return nil
	}
	if len(identities) == 0 {
		return fmt.Errorf("%d encrypted config value(s): %w", len(keys), ErrNoIdentity)
	}

	for _, key := range keys {
		switch val := v.Get(key).(type) {
		case string:
			plain, err := Decrypt(val, identities...)
			if err != nil {
				return fmt.Errorf("decrypt config key %q: %w", key, err)
			}
			v.Set(key, plain)
		case []any:
			out := make([]string, len(val))
			for i, item := range val {
				s := fmt.Sprint(item)
				if !IsEncrypted(s) {
					out[i] = s
					continue
				}
				plain, err := Decrypt(s, identities...)
				if err != nil {
					return fmt.Errorf("decrypt config key %q[%d]: %w", key, i, err)
				}
				out[i] = plain
			}
			v.Set(key, out)
		case []string:
			out := make([]string, len(val))
			for i, s := range val {
				if !IsEncrypted(s) {
					out[i] = s
					continue
				}
				plain, err := Decrypt(s, identities...)
				if err != nil {
					return fmt.Errorf("decrypt config key %q[%d]: %w", key, i, err)
				}
				out[i] = plain
			}
			v.Set(key, out)
		}
	}
	return nil
}

func encryptedValue(val any) bool {
	switch val := val.(type) {
	case string:
		return IsEncrypted(val)
	case []string:
		for _, s := range val {
			if IsEncrypted(s) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && IsEncrypted(s) {
				return true
			}
		}
	}
	return false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}
