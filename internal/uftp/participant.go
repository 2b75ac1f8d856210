package uftp

import "fmt"

// Role is the protocol role of a participant.
type Role string

const (
	RoleAGR Role = "AGR"
	RoleDSO Role = "DSO"
	RoleCRO Role = "CRO"
)

// ParseRole converts a wire role string to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAGR, RoleDSO, RoleCRO:
		return Role(s), nil
	default:
		return "", NewMalformedMessageError(fmt.Sprintf("unknown participant role %q", s))
	}
}

// Participant identifies a protocol actor.
type Participant struct {
	Domain string
	Role   Role
}

func (p Participant) String() string {
	return fmt.Sprintf("%s(%s)", p.Domain, p.Role)
}

// SigningDetails bundles the credentials used for an outgoing send.
type SigningDetails struct {
	Sender Participant

	// SenderPrivateKeyBase64 is the sender's Ed25519 private key (64 byte libsodium
	// secret key or 32 byte seed), standard base64 encoded.
	SenderPrivateKeyBase64 string

	Recipient Participant
}
