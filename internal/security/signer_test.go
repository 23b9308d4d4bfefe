package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Throwaway key, generated for tests only.
const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestSignerDisabled(t *testing.T) {
	signer, err := NewSigner("")
	require.NoError(t, err)
	assert.False(t, signer.Enabled())
	assert.Empty(t, signer.PublicKey())

	result, err := signer.SignPayload(map[string]string{"vault": "0xaaa"})
	require.NoError(t, err)
	assert.Equal(t, "0xaaa", result["vault"])
	_, ok := result["_integrity"]
	assert.False(t, ok)
}

func TestSignerRejectsMalformedKey(t *testing.T) {
	_, err := NewSigner("not-hex")
	require.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)
	require.True(t, signer.Enabled())

	payload := map[string]string{"vault": "0xaaa", "apr": "12.50"}
	result, err := signer.SignPayload(payload)
	require.NoError(t, err)

	integrity, ok := result["_integrity"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "secp256k1-keccak256", integrity["algorithm"])
	assert.Equal(t, signer.PublicKey(), integrity["publicKey"])

	// The signature covers the canonical encoding of the bare payload.
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	valid, err := Verify(payloadBytes, integrity["signature"].(string), signer.PublicKey())
	require.NoError(t, err)
	assert.True(t, valid)

	// Tampered payloads must fail verification.
	valid, err = Verify([]byte(`{"apr":"99.99","vault":"0xaaa"}`), integrity["signature"].(string), signer.PublicKey())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify([]byte("{}"), "zz", "aa")
	require.Error(t, err)

	_, err = Verify([]byte("{}"), "aabb", "aa")
	require.Error(t, err)
}
