package enums

import "fmt"

// CheckoutStep is the walk-in wizard's forward-only state. The ordinal mirrors
// the portal's step numbering (1-6) with succeeded as the terminal state.
type CheckoutStep string

const (
	CheckoutStepPhoneEntry    CheckoutStep = "phone_entry"
	CheckoutStepVerification  CheckoutStep = "verification"
	CheckoutStepVehicle       CheckoutStep = "vehicle"
	CheckoutStepService       CheckoutStep = "service"
	CheckoutStepAuthorization CheckoutStep = "authorization"
	CheckoutStepPayment       CheckoutStep = "payment"
	CheckoutStepSucceeded     CheckoutStep = "succeeded"
)

// CheckoutStepOrder lists the wizard steps in walk order.
var CheckoutStepOrder = []CheckoutStep{
	CheckoutStepPhoneEntry,
	CheckoutStepVerification,
	CheckoutStepVehicle,
	CheckoutStepService,
	CheckoutStepAuthorization,
	CheckoutStepPayment,
	CheckoutStepSucceeded,
}

// IsValid checks whether the given step matches the canonical enum.
func (s CheckoutStep) IsValid() bool {
	return s.Ordinal() >= 0
}

// Ordinal returns the 1-based wizard step number, or -1 for unknown values.
// Succeeded reports 7.
func (s CheckoutStep) Ordinal() int {
	for i, candidate := range CheckoutStepOrder {
		if candidate == s {
			return i + 1
		}
	}
	return -1
}

// Terminal reports whether the step has no outgoing transitions.
func (s CheckoutStep) Terminal() bool {
	return s == CheckoutStepSucceeded
}

// ParseCheckoutStep converts raw strings into CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range CheckoutStepOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

// CheckoutTrack distinguishes a fresh walk-in from a resumed marketplace job.
type CheckoutTrack string

const (
	CheckoutTrackWalkIn    CheckoutTrack = "walk_in"
	CheckoutTrackResumeJob CheckoutTrack = "resume_job"
)

// IsValid checks whether the given track matches the canonical enum.
func (t CheckoutTrack) IsValid() bool {
	return t == CheckoutTrackWalkIn || t == CheckoutTrackResumeJob
}
