package constants

// PollerState is a state of the device arrival poll loop.
type PollerState string

const (
	PollerStatePolling   PollerState = "polling"
	PollerStateSatisfied PollerState = "satisfied"
	PollerStateTimedOut  PollerState = "timed_out"
	PollerStateFailed    PollerState = "failed"
)

// LinkOutcome labels the result of a link attempt for metrics.
type LinkOutcome string

const (
	LinkOutcomeSuccess    LinkOutcome = "success"
	LinkOutcomeValidation LinkOutcome = "validation"
	LinkOutcomeToken      LinkOutcome = "token"
	LinkOutcomeBroadcast  LinkOutcome = "broadcast"
	LinkOutcomePoll       LinkOutcome = "poll"
	LinkOutcomeTimeout    LinkOutcome = "timeout"
	LinkOutcomeCancelled  LinkOutcome = "cancelled"
)
