package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

var sealCmd = &cobra.Command{
	Use:   "seal <payload-xml-file>",
	Short: "Seal a UFTP payload into a SignedMessage",
	Long: `Seal a UFTP payload with an Ed25519 private key and print the SignedMessage XML.

Example:
  uftp seal flexrequest.xml --key ./keys/dso.example.com.private.jwk --sender-domain dso.example.com --sender-role DSO`,
	Args: cobra.ExactArgs(1),
	RunE: runSeal,
}

var (
	sealKeyPath      string
	sealSenderDomain string
	sealSenderRole   string
)

func init() {
	sealCmd.Flags().StringVar(&sealKeyPath, "key", "", "Path to the private key JWK file [required]")
	sealCmd.Flags().StringVar(&sealSenderDomain, "sender-domain", "", "SenderDomain of the SignedMessage [required]")
	sealCmd.Flags().StringVar(&sealSenderRole, "sender-role", "", "SenderRole of the SignedMessage (AGR, DSO or CRO) [required]")
	_ = sealCmd.MarkFlagRequired("key")
	_ = sealCmd.MarkFlagRequired("sender-domain")
	_ = sealCmd.MarkFlagRequired("sender-role")
}

func runSeal(cmd *cobra.Command, args []string) error {
	role, err := uftp.ParseRole(sealSenderRole)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	// reject payloads the receiver would not be able to decode
	if _, err := uftp.UnmarshalXML(payload); err != nil {
		return err
	}

	privateKey, err := crypto.LoadSigningKey(sealKeyPath)
	if err != nil {
		return err
	}

	sealer, err := crypto.NewSealer(1)
	if err != nil {
		return err
	}
	defer sealer.Close()

	sender := uftp.Participant{Domain: sealSenderDomain, Role: role}
	signed, err := sealer.Seal(cmd.Context(), payload, sender, crypto.EncodePrivateKeyBase64(privateKey))
	if err != nil {
		return err
	}

	out, err := uftp.MarshalSignedMessage(signed)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
