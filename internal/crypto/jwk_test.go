package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

func TestEd25519PublicKeyToJWK(t *testing.T) {
	// nil public key
	if _, err := Ed25519PublicKeyToJWK(nil, "kid"); err == nil {
		t.Fatalf("expected an error when passing nil public key, but got no error")
	}

	privateKey, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("Could not generate Ed25519 private key: %v", err)
	}
	publicKey := privateKey.Public().(ed25519.PublicKey)

	key, err := Ed25519PublicKeyToJWK(publicKey, "")
	if err != nil {
		t.Fatalf("error converting Ed25519 public key to JWK: %v", err)
	}

	// keyID falls back to the thumbprint id
	gotKeyID, ok := key.KeyID()
	if !ok {
		t.Fatalf("KeyID not set in JWK")
	}
	wantKeyID, err := GenerateKeyIDFromEd25519Key(publicKey)
	if err != nil {
		t.Fatal(err)
	}
	if gotKeyID != wantKeyID {
		t.Errorf("KeyID = %q, want thumbprint id %q", gotKeyID, wantKeyID)
	}

	alg, ok := key.Algorithm()
	if !ok {
		t.Fatalf("Algorithm not set in JWK")
	}
	if alg.String() != jwa.EdDSA().String() {
		t.Errorf("Algorithm mismatch: got %q, want %q", alg.String(), jwa.EdDSA().String())
	}

	usage, ok := key.KeyUsage()
	if !ok {
		t.Fatalf("KeyUsage not set in JWK")
	}
	if usage != jwk.ForSignature.String() {
		t.Errorf("KeyUsage mismatch: got %q, want %q", usage, jwk.ForSignature.String())
	}
}

func TestPublicKeyBase64FromJWK(t *testing.T) {
	privateKey, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	want := EncodePublicKeyBase64(privateKey.Public().(ed25519.PublicKey))

	privateJWK, err := Ed25519PrivateKeyToJWK(privateKey, "kid-1")
	if err != nil {
		t.Fatal(err)
	}

	// works for private keys too, so the server can publish its own key
	got, err := PublicKeyBase64FromJWK(privateJWK)
	if err != nil {
		t.Fatalf("PublicKeyBase64FromJWK: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := PublicKeyBase64FromJWK(nil); err == nil {
		t.Error("expected error for nil key")
	}
}
