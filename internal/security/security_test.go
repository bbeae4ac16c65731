package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestGenerateAPIKey_FormatAndUniqueness(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^sk-[A-Za-z0-9_-]{43}$`, a)
}

func TestHashAPIKey_FormatAndDeterminism(t *testing.T) {
	h1 := HashAPIKey("sk-example")
	h2 := HashAPIKey("sk-example")
	h3 := HashAPIKey("sk-different")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.True(t, hexPattern.MatchString(h1))
}

func sampleRequest() *models.ChatRequest {
	temp := 0.5
	return &models.ChatRequest{
		Model: "gpt-4",
		Messages: []models.ChatMessage{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "hello"},
		},
		Temperature: &temp,
	}
}

func TestFingerprint_StableAcrossCalls(t *testing.T) {
	req := sampleRequest()

	fp1, err := Fingerprint(req)
	require.NoError(t, err)
	fp2, err := Fingerprint(req)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.True(t, hexPattern.MatchString(fp1))
}

func TestFingerprint_ChangesWithFieldChange(t *testing.T) {
	base := sampleRequest()
	fpBase, err := Fingerprint(base)
	require.NoError(t, err)

	changed := sampleRequest()
	changed.Messages[1].Content = "goodbye"
	fpChanged, err := Fingerprint(changed)
	require.NoError(t, err)

	assert.NotEqual(t, fpBase, fpChanged)
}

func TestFingerprint_FieldOrderIndependent(t *testing.T) {
	// Two structurally identical requests built independently must
	// fingerprint identically regardless of Go struct field order,
	// since canonicalJSON sorts object keys before hashing.
	req1 := sampleRequest()
	req2 := &models.ChatRequest{
		Temperature: req1.Temperature,
		Model:       req1.Model,
		Messages:    req1.Messages,
	}

	fp1, err := Fingerprint(req1)
	require.NoError(t, err)
	fp2, err := Fingerprint(req2)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
}
