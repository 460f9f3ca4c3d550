package readiness

import "errors"

// State-conflict errors are named so handlers can map each to a
// distinct HTTP condition with a precise remediation message.
var (
	ErrAlreadyAttested             = errors.New("an active attestation of this type already exists for the case")
	ErrAttestationNotFound         = errors.New("attestation not found")
	ErrAlreadyVoided               = errors.New("attestation is already voided")
	ErrVoidReasonRequired          = errors.New("a reason is required to void an attestation")
	ErrInstanceNotEligible         = errors.New("instance is not eligible for this requirement")
	ErrAlreadyReservedForOtherCase = errors.New("instance is already reserved for another case")
	ErrRequirementNotFound         = errors.New("case has no requirement for this catalog item")
)
