package cli

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <signed-message-xml-file>",
	Short: "Verify a SignedMessage and print its payload",
	Long: `Verify a SignedMessage with the sender's Ed25519 public key and print the payload XML.

Example:
  uftp verify signed.xml --public-key ./keys/dso.example.com.public.jwk`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var verifyPublicKeyPath string

func init() {
	verifyCmd.Flags().StringVar(&verifyPublicKeyPath, "public-key", "", "Path to the public key JWK file [required]")
	_ = verifyCmd.MarkFlagRequired("public-key")
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read signed message: %w", err)
	}

	signed, err := uftp.UnmarshalSignedMessage(data)
	if err != nil {
		return err
	}

	publicKey, err := crypto.ReadEd25519PublicKeyFromJWKFile(filepath.Dir(verifyPublicKeyPath), filepath.Base(verifyPublicKeyPath))
	if err != nil {
		return err
	}

	payload, err := openSigned(cmd, signed, publicKey)
	if err != nil {
		return err
	}

	msg, err := uftp.UnmarshalXML(payload)
	if err != nil {
		return err
	}

	appLogger.Info("signature verified",
		slog.String("sender", fmt.Sprintf("%s(%s)", signed.SenderDomain, signed.SenderRole)),
		slog.String("message_type", string(msg.Type())),
		slog.String("message_id", msg.Header().MessageID))

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return err
}

func openSigned(cmd *cobra.Command, signed uftp.SignedMessage, publicKey ed25519.PublicKey) ([]byte, error) {
	sealer, err := crypto.NewSealer(1)
	if err != nil {
		return nil, err
	}
	defer sealer.Close()

	return sealer.Verify(cmd.Context(), signed, crypto.EncodePublicKeyBase64(publicKey))
}
