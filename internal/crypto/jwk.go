// JWK (JSON Web Key) conversion for participant keys
//
// these functions convert raw Ed25519 keys to OKP JWKs (and back).
// Reference: https://datatracker.ietf.org/doc/html/rfc8037 (CFRG curves in JOSE)
//
// the directory uses them to turn keys fetched from a JWKS endpoint into the base64 form
// used by the sealer, and the server publishes its own public key at /.well-known/jwks.json

package crypto

import (
	"crypto"
	"crypto/ed25519"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Ed25519PublicKeyToJWK converts an Ed25519 public key to JWK format
func Ed25519PublicKeyToJWK(publicKey ed25519.PublicKey, keyID string) (jwk.Key, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, NewKeyManagementError("invalid Ed25519 public key")
	}

	key, err := jwk.Import(publicKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK from Ed25519 public key")
	}

	return withSigningMetadata(key, keyID)
}

// Ed25519PrivateKeyToJWK converts an Ed25519 private key to JWK format
func Ed25519PrivateKeyToJWK(privateKey ed25519.PrivateKey, keyID string) (jwk.Key, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, NewKeyManagementError("invalid Ed25519 private key")
	}

	key, err := jwk.Import(privateKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK from Ed25519 private key")
	}

	return withSigningMetadata(key, keyID)
}

// withSigningMetadata sets kid, alg and use. An empty keyID is replaced by the key's thumbprint id.
func withSigningMetadata(key jwk.Key, keyID string) (jwk.Key, error) {
	if keyID == "" {
		id, err := thumbprintID(key)
		if err != nil {
			return nil, err
		}
		keyID = id
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key ID")
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.EdDSA()); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set algorithm")
	}

	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key usage")
	}

	return key, nil
}

// Ed25519JWKToPublicKey converts an Ed25519 JWK (public or private) to an Ed25519 public key
func Ed25519JWKToPublicKey(key jwk.Key) (ed25519.PublicKey, error) {
	if key == nil {
		return nil, NewKeyManagementError("jwk is nil")
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to derive public JWK")
	}

	var raw any
	if err := jwk.Export(pub, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export Ed25519 public key")
	}

	publicKey, ok := raw.(ed25519.PublicKey)
	if !ok {
		alg, _ := key.Algorithm()
		return nil, NewKeyManagementError(fmt.Sprintf("expected Ed25519 public key but got key with algorithm %v and type %T", alg, raw))
	}

	return publicKey, nil
}

// PublicKeyBase64FromJWK returns the base64 public key form of an Ed25519 JWK
func PublicKeyBase64FromJWK(key jwk.Key) (string, error) {
	publicKey, err := Ed25519JWKToPublicKey(key)
	if err != nil {
		return "", err
	}
	return EncodePublicKeyBase64(publicKey), nil
}

// GenerateKeyIDFromEd25519Key generates a key ID from an Ed25519 public key using its SHA-256 thumbprint.
// Returns the first 16 characters of the hex-encoded thumbprint (RFC 7638)
func GenerateKeyIDFromEd25519Key(publicKey ed25519.PublicKey) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", NewKeyManagementError("invalid Ed25519 public key length")
	}

	jwkKey, err := jwk.Import(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to import key")
	}

	return thumbprintID(jwkKey)
}

func thumbprintID(key jwk.Key) (string, error) {
	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to generate thumbprint")
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}
