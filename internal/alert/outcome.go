package alert

// Outcome is the result of one invocation. Its integer value is the process
// exit status.
type Outcome int

const (
	OutcomeNoRain          Outcome = 0
	OutcomeTriggered       Outcome = 1
	OutcomeAlreadyAlerting Outcome = 2
)

// Exit statuses for invocations that fail before reaching an outcome.
const (
	ExitConfigError  = 3
	ExitRuntimeError = 4
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoRain:
		return "no_rain"
	case OutcomeTriggered:
		return "triggered"
	case OutcomeAlreadyAlerting:
		return "already_alerting"
	default:
		return "unknown"
	}
}
