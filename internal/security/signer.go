// Package security provides cryptographic signing for served payloads so
// downstream consumers can verify their origin.
package security

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Signer signs JSON payloads with a secp256k1 key. Signatures are produced
// over the Keccak-256 hash of the canonical JSON encoding.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
	enabled    bool
}

// NewSigner creates a signer from a hex-encoded private key. An empty key
// disables signing: SignPayload then passes payloads through unchanged.
func NewSigner(hexKey string) (*Signer, error) {
	if hexKey == "" {
		return &Signer{}, nil
	}

	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	publicKey := hex.EncodeToString(crypto.FromECDSAPub(&privateKey.PublicKey))
	logrus.Infof("Payload signing enabled, public key: %s...", publicKey[:16])

	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		enabled:    true,
	}, nil
}

// Enabled reports whether payloads will be signed.
func (s *Signer) Enabled() bool {
	return s.enabled
}

// PublicKey returns the hex-encoded uncompressed public key, empty when
// signing is disabled.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// SignPayload wraps a payload with signature metadata. With signing disabled
// the payload is returned as a plain JSON object without metadata.
func (s *Signer) SignPayload(payload interface{}) (map[string]interface{}, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if !s.enabled {
		return result, nil
	}

	hash := crypto.Keccak256(payloadBytes)
	signature, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	result["_integrity"] = map[string]interface{}{
		"signature": hex.EncodeToString(signature),
		"publicKey": s.publicKey,
		"algorithm": "secp256k1-keccak256",
		"signedAt":  time.Now().UTC().Format(time.RFC3339),
	}
	return result, nil
}

// Verify checks a hex signature over a payload against a hex public key.
func Verify(payload []byte, hexSignature, hexPublicKey string) (bool, error) {
	signature, err := hex.DecodeString(hexSignature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	publicKey, err := hex.DecodeString(hexPublicKey)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(signature) < 64 {
		return false, fmt.Errorf("signature too short")
	}

	hash := crypto.Keccak256(payload)
	// Drop the recovery byte, VerifySignature expects 64 bytes.
	return crypto.VerifySignature(publicKey, hash, signature[:64]), nil
}
