// Package crypto seals and verifies UFTP message bodies and manages participant keys.
//
// Sealing produces the libsodium crypto_sign format used on the wire: the 64 byte Ed25519
// signature followed by the signed payload. Verification checks the signature and returns the
// payload. Both run on primitives claimed from a bounded pool (see Sealer).
//
// Keys are Ed25519. They are exchanged as standard base64 strings (the form held by the
// participant directory) or as OKP JSON Web Keys (the form written by keygen and served from
// /.well-known/jwks.json).
package crypto
