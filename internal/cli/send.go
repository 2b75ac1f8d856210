package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/directory"
	"github.com/uftp-network/uftp-engine/internal/isptime"
	"github.com/uftp-network/uftp-engine/internal/sending"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/validation"
)

var sendCmd = &cobra.Command{
	Use:   "send <payload-xml-file>",
	Short: "Validate, seal and send a UFTP message",
	Long: `Send a UFTP payload to its RecipientDomain as this participant.

Missing SenderDomain, MessageID, ConversationID and TimeStamp attributes are filled in.
Requests are checked by the protocol validators first (validators that need earlier messages are skipped).
The recipient endpoint is taken from the registry.

Requires PARTICIPANT_DOMAIN, PARTICIPANT_ROLE, SIGNING_KEY_PATH and REGISTRY_PATH.

Example:
  uftp send flexrequest.xml --recipient-role AGR`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

var sendRecipientRole string

func init() {
	sendCmd.Flags().StringVar(&sendRecipientRole, "recipient-role", "", "Role of the recipient (default: looked up in the registry)")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := cfg.RequireParticipant(); err != nil {
		return err
	}
	self := uftp.Participant{Domain: cfg.ParticipantDomain, Role: uftp.Role(cfg.ParticipantRole)}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	msg, err := uftp.UnmarshalXML(data)
	if err != nil {
		return err
	}
	if err := uftp.FillHeader(msg, self.Domain, time.Now().UTC()); err != nil {
		return err
	}

	// only endpoints are needed to send, remote keys are not fetched
	dir, err := directory.New(ctx, directory.Config{
		RegistryPath:  cfg.RegistryPath,
		ManualKeysDir: cfg.ManualKeysDir,
		SkipJWKCache:  true,
	}, appLogger)
	if err != nil {
		return err
	}

	recipient, err := sendRecipient(cmd, dir, msg.Header().RecipientDomain)
	if err != nil {
		return err
	}

	privateKey, err := crypto.LoadSigningKey(cfg.SigningKeyPath)
	if err != nil {
		return err
	}

	ispDuration, err := isptime.ParseDuration(cfg.ISPDuration)
	if err != nil {
		return fmt.Errorf("invalid ISP_DURATION: %w", err)
	}

	sealer, err := crypto.NewSealer(1)
	if err != nil {
		return err
	}
	defer sealer.Close()

	chain := validation.NewDefaultChain(validation.Options{
		SupportedVersions: cfg.SupportedVersions,
		ISPDuration:       ispDuration,
	})
	sender := sending.NewSender(sealer, dir, chain, sending.Config{
		ConnectTimeout:  cfg.SendConnectTimeout,
		ResponseTimeout: cfg.SendResponseTimeout,
	})

	details := uftp.SigningDetails{
		Sender:                 self,
		SenderPrivateKeyBase64: crypto.EncodePrivateKeyBase64(privateKey),
		Recipient:              recipient,
	}
	if err := sender.ValidateAndSend(ctx, msg, details); err != nil {
		return err
	}

	h := msg.Header()
	appLogger.Info("message sent",
		slog.String("message_type", string(msg.Type())),
		slog.String("message_id", h.MessageID),
		slog.String("conversation_id", h.ConversationID),
		slog.String("recipient", recipient.String()))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s sent to %s\n", msg.Type(), h.MessageID, recipient)
	return err
}

func sendRecipient(cmd *cobra.Command, dir *directory.Directory, domain string) (uftp.Participant, error) {
	if domain == "" {
		return uftp.Participant{}, uftp.NewMalformedMessageError("RecipientDomain is required")
	}
	if sendRecipientRole != "" {
		role, err := uftp.ParseRole(sendRecipientRole)
		if err != nil {
			return uftp.Participant{}, err
		}
		return uftp.Participant{Domain: domain, Role: role}, nil
	}
	role, err := dir.ResolveRole(cmd.Context(), domain)
	if err != nil {
		return uftp.Participant{}, err
	}
	return uftp.Participant{Domain: domain, Role: role}, nil
}
