package uftp

// ValidationResult is the outcome of validating an envelope.
// A rejection reason is present exactly when the result is not valid.
type ValidationResult struct {
	valid           bool
	rejectionReason string
}

const defaultRejectionReason = "Message rejected"

// ValidationOK returns a passing result.
func ValidationOK() ValidationResult {
	return ValidationResult{valid: true}
}

// ValidationRejected returns a failing result. An empty reason is replaced by a generic one.
func ValidationRejected(reason string) ValidationResult {
	if reason == "" {
		reason = defaultRejectionReason
	}
	return ValidationResult{valid: false, rejectionReason: reason}
}

func (r ValidationResult) Valid() bool             { return r.valid }
func (r ValidationResult) RejectionReason() string { return r.rejectionReason }

// DuplicateResult classifies a newly received message against the store.
type DuplicateResult int

const (
	NewMessage DuplicateResult = iota
	DuplicateMessage
	ReusedIDDifferentContent
)

func (d DuplicateResult) String() string {
	switch d {
	case NewMessage:
		return "new message"
	case DuplicateMessage:
		return "duplicate message"
	case ReusedIDDifferentContent:
		return "message id reused with different content"
	default:
		return "unknown"
	}
}
