package validation

import (
	"errors"
	"time"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// Options configures the built-in validators.
type Options struct {
	// Store is consulted by the validators that compare against earlier messages.
	Store uftp.MessageStore

	// SupportedVersions lists accepted Version attributes. Empty disables the version check.
	SupportedVersions []string

	// ISPDuration is the agreed ISP length. Zero accepts any fixed duration.
	ISPDuration time.Duration

	// HostedDomains enables the recipient check for incoming messages when non-empty.
	HostedDomains []string

	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultValidators returns the protocol validators.
func DefaultValidators(opts Options) []Validator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	validators := []Validator{
		NewMessageIDValidator(),
		NewConversationIDValidator(),
		NewDomainValidator(),
		NewSenderRoleValidator(),

		NewTimeZoneValidator(),
		NewIspDurationValidator(opts.ISPDuration),
		NewPeriodValidator(),
		NewIspBoundsValidator(),
		NewIspOverlapValidator(),

		NewIspRequestedDispositionValidator(),
		NewIspPowerDiscrepancyValidator(),
		NewExpirationInFutureValidator(),
		NewCurrencyValidator(),
		NewPriceScaleValidator(),
		NewMinActivationFactorValidator(),
	}
	if len(opts.SupportedVersions) > 0 {
		validators = append(validators, NewVersionValidator(opts.SupportedVersions))
	}
	if len(opts.HostedDomains) > 0 {
		validators = append(validators, NewRecipientValidator(opts.HostedDomains))
	}
	if opts.Store != nil {
		validators = append(validators,
			NewActiveFlexRequestValidator(opts.Store, now),
			NewFlexOptionRequestMatchValidator(opts.Store),
			NewFlexOrderIspMatchValidator(opts.Store),
			NewFlexOrderFlexibilityMatchValidator(opts.Store),
			NewFlexOrderPriceMatchValidator(opts.Store),
			NewFlexOfferNotRevokedValidator(opts.Store),
			NewReferencedRequestValidator(opts.Store),
		)
	}
	return validators
}

// NewDefaultChain builds a chain of the protocol validators plus extra user validators.
func NewDefaultChain(opts Options, extra ...Validator) *Chain {
	return NewChain(append(DefaultValidators(opts), extra...)...)
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, uftp.ErrMessageNotFound)
}
