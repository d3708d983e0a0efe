package ratelimit

// Outcome classifies a rate limit decision.
type Outcome int

const (
	// OutcomeBypass means the request carried no client identifier and was not checked.
	OutcomeBypass Outcome = iota
	// OutcomeAllow means the request fits in the client's quota.
	OutcomeAllow
	// OutcomeBlock means the client exceeded its quota for the current window.
	OutcomeBlock
	// OutcomeError means the counter could not be updated safely.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBypass:
		return "bypass"
	case OutcomeAllow:
		return "allow"
	case OutcomeBlock:
		return "block"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// ReasonCounterUpdateFailed is the Reason of every OutcomeError decision.
const ReasonCounterUpdateFailed = "counter update failed"

// Decision is the result of checking one request against the quota.
// Which fields are meaningful depends on Outcome:
//   - OutcomeAllow: Limit, Count, Remaining, ResetIn, WindowReset, WindowDegraded
//   - OutcomeBlock: Limit, Count, RetryAfter, WindowReset, WindowDegraded
//   - OutcomeError: Reason, Err, WindowReset, WindowDegraded
type Decision struct {
	Outcome    Outcome
	Limit      uint64
	Count      uint64
	Remaining  uint64
	ResetIn    uint64
	RetryAfter uint64
	Reason     string
	Err        error

	// WindowReset is set when this request opened a new window.
	WindowReset    bool
	// WindowDegraded is set when the window could not be settled and
	// ResetIn or RetryAfter is a best-effort value.
	WindowDegraded bool
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow || d.Outcome == OutcomeBypass
}
