// Package billing defines the charge decision attached to a search outcome.
package billing

// Reason explains why a search cost what it did.
type Reason string

const (
	// ReasonFeeDisabled means the fee mechanism is administratively off.
	ReasonFeeDisabled Reason = "fee_disabled"
	// ReasonRepeatFree means an identical fingerprint was seen before.
	ReasonRepeatFree Reason = "repeat_free"
	// ReasonNoResults means the merged result list was empty.
	ReasonNoResults Reason = "no_results_free"
	// ReasonCharged means the configured per-search cost applies.
	ReasonCharged Reason = "charged"
)

// Decision is the billing outcome of one search.
type Decision struct {
	cost   int
	reason Reason
}

// Free creates a zero-cost decision with the given reason.
func Free(reason Reason) Decision {
	return Decision{cost: 0, reason: reason}
}

// Charged creates a charged decision. Applying the charge against the
// requester's balance is the caller's responsibility.
func Charged(cost int) Decision {
	return Decision{cost: cost, reason: ReasonCharged}
}

// Cost returns the integer cost, always >= 0.
func (d Decision) Cost() int { return d.cost }

// Reason returns the reason code.
func (d Decision) Reason() Reason { return d.reason }

// IsRepeat reports whether the search was free because of a prior
// identical fingerprint.
func (d Decision) IsRepeat() bool { return d.reason == ReasonRepeatFree }
