// this file contains functions to generate, encode and store Ed25519 key pairs
//
// UFTP participants publish their public key as standard base64 of the 32 raw key bytes.
// Private keys are accepted either as the 64 byte libsodium secret key or as the 32 byte seed.
// keys written to disk are JWK sets (the private key file is not encrypted)

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// GenerateEd25519KeyPair generates a new Ed25519 private key
func GenerateEd25519KeyPair() (ed25519.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// EncodePrivateKeyBase64 returns the 64 byte secret key in standard base64
func EncodePrivateKeyBase64(privateKey ed25519.PrivateKey) string {
	return base64.StdEncoding.EncodeToString(privateKey)
}

// EncodePublicKeyBase64 returns the 32 byte public key in standard base64
func EncodePublicKeyBase64(publicKey ed25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(publicKey)
}

// DecodePrivateKeyBase64 parses a base64 Ed25519 secret key or seed
func DecodePrivateKeyBase64(s string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, WrapKeyManagementError(err, "private key is not valid base64")
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, NewKeyManagementError(fmt.Sprintf("invalid Ed25519 private key length %d", len(raw)))
	}
}

// DecodePublicKeyBase64 parses a base64 Ed25519 public key
func DecodePublicKeyBase64(s string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, WrapKeyManagementError(err, "public key is not valid base64")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, NewKeyManagementError(fmt.Sprintf("invalid Ed25519 public key length %d", len(raw)))
	}

	return ed25519.PublicKey(raw), nil
}

// SaveEd25519PrivateKeyToJWKFile saves an Ed25519 private key to a JWK set file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func SaveEd25519PrivateKeyToJWKFile(privateKey ed25519.PrivateKey, keyID, baseDir, filename string) error {
	jwkKey, err := Ed25519PrivateKeyToJWK(privateKey, keyID)
	if err != nil {
		return err
	}

	return writeJWKSet(jwkKey, baseDir, filename, 0600)
}

// SaveEd25519PublicKeyToJWKFile saves an Ed25519 public key to a JWK set file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func SaveEd25519PublicKeyToJWKFile(publicKey ed25519.PublicKey, keyID, baseDir, filename string) error {
	jwkKey, err := Ed25519PublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return err
	}

	return writeJWKSet(jwkKey, baseDir, filename, 0644)
}

func writeJWKSet(key jwk.Key, baseDir, filename string, perm os.FileMode) error {
	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(key); err != nil {
		return WrapKeyManagementError(err, "failed to add key to JWK set")
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return WrapKeyManagementError(err, "failed to marshal JWK set")
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, perm); err != nil {
		return WrapKeyManagementError(err, "failed to write file")
	}

	return nil
}

// ReadEd25519PrivateKeyFromJWKFile loads an Ed25519 private key from a JWK set file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.jwk")
func ReadEd25519PrivateKeyFromJWKFile(baseDir, filename string) (ed25519.PrivateKey, error) {
	key, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export key")
	}

	privateKey, ok := raw.(ed25519.PrivateKey)
	if !ok {
		return nil, NewKeyManagementError("key is not an Ed25519 private key")
	}

	return privateKey, nil
}

// ReadEd25519PublicKeyFromJWKFile loads an Ed25519 public key from a JWK set file
//
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func ReadEd25519PublicKeyFromJWKFile(baseDir, filename string) (ed25519.PublicKey, error) {
	key, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return nil, err
	}

	return Ed25519JWKToPublicKey(key)
}

// LoadSigningKey reads the private key JWK file at path
func LoadSigningKey(path string) (ed25519.PrivateKey, error) {
	return ReadEd25519PrivateKeyFromJWKFile(filepath.Dir(path), filepath.Base(path))
}

func readFirstJWK(baseDir, filename string) (jwk.Key, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to read file")
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() == 0 {
		return nil, NewKeyManagementError("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, NewKeyManagementError("failed to get key from JWK set")
	}

	return jwkKey, nil
}
