// Package security implements API key generation and hashing, and the
// canonical-request fingerprinting used by the two-level cache.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

const apiKeyPrefix = "sk-"

// GenerateAPIKey returns a new plaintext API key: "sk-" followed by the
// URL-safe base64 encoding of 32 random bytes. The plaintext is shown
// to the operator exactly once by the admin tool and never persisted.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API key entropy: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashAPIKey returns the lowercase hex SHA-256 digest of a plaintext key.
// This is the only form ever stored or looked up in the key store.
func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Fingerprint computes the cache key for a chat request: the SHA-256 hex
// digest of the request serialized as JSON with object keys sorted, so
// that two structurally identical requests always fingerprint the same
// regardless of field order. Callers must pass the request AFTER PII
// scrubbing — the fingerprint is computed over what will actually be
// sent upstream, not the raw inbound body.
func Fingerprint(req *models.ChatRequest) (string, error) {
	canonical, err := canonicalJSON(req)
	if err != nil {
		return "", fmt.Errorf("canonicalizing request for fingerprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals v to JSON via the standard encoder and then
// re-serializes it through a generic map/slice walk so that every
// object's keys are written in sorted order. encoding/json already
// sorts map keys, but struct field order follows declaration order, so
// a struct must be round-tripped through interface{} first to get a
// fully key-sorted encoding.
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []interface{}:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ib...)
		}
		out = append(out, ']')
		return out, nil
	default:
		return json.Marshal(val)
	}
}
