package cli

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/crypto"
)

// file naming convention - domain.public.jwk and domain.private.jwk
const (
	publicKeyFileNameFormat  = "%s.public.jwk"
	privateKeyFileNameFormat = "%s.private.jwk"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an Ed25519 key pair for a participant",
	Long: `Generate a new Ed25519 key pair in JWK format.

The private key is used to seal outgoing messages (SIGNING_KEY_PATH).
The public key can be published via a JWKS endpoint or placed in another participant's manual keys directory.
The raw base64 keys are printed as well.

Example:
  uftp keygen --domain dso.example.com --outputdir ./keys`,
	RunE: runKeygen,
}

var (
	keygenDomain    string
	keygenOutputDir string
	keygenKid       string
)

func init() {
	keygenCmd.Flags().StringVarP(&keygenDomain, "domain", "d", "", "Participant domain (e.g., dso.example.com) [required]")
	keygenCmd.Flags().StringVarP(&keygenOutputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	keygenCmd.Flags().StringVarP(&keygenKid, "kid", "k", "", "Key ID (default: auto-generated from thumbprint)")
	_ = keygenCmd.MarkFlagRequired("domain")
	_ = keygenCmd.MarkFlagRequired("outputdir")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	// make the directory if it doesn't exist
	if err := os.MkdirAll(keygenOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	privateKey, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}
	publicKey := privateKey.Public().(ed25519.PublicKey)

	keyID := keygenKid
	if keyID == "" {
		keyID, err = crypto.GenerateKeyIDFromEd25519Key(publicKey)
		if err != nil {
			return fmt.Errorf("failed to generate key ID: %w", err)
		}
	}

	out := cmd.OutOrStdout()

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, keygenDomain)
	if err := crypto.SaveEd25519PublicKeyToJWKFile(publicKey, keyID, keygenOutputDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	fmt.Fprintf(out, "✓ Public JWK:  %s/%s (kid: %s)\n", keygenOutputDir, publicFile, keyID)

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, keygenDomain)
	if err := crypto.SaveEd25519PrivateKeyToJWKFile(privateKey, keyID, keygenOutputDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	fmt.Fprintf(out, "✓ Private JWK: %s/%s (kid: %s)\n", keygenOutputDir, privateFile, keyID)

	fmt.Fprintf(out, "public key (base64):  %s\n", crypto.EncodePublicKeyBase64(publicKey))
	fmt.Fprintf(out, "private key (base64): %s\n", crypto.EncodePrivateKeyBase64(privateKey))
	fmt.Fprintln(out, "keep the private key secret")
	return nil
}
