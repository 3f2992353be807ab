package enums

import "fmt"

// OutboxDLQErrorReason records why the publisher gave up on an outbox row.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: retryable publish failures used up the attempt budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the broker rejected the message permanently.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUndecodable: the row's event type or envelope is unknown to the registry.
	OutboxDLQReasonUndecodable OutboxDLQErrorReason = "undecodable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonUndecodable,
}

func (r OutboxDLQErrorReason) String() string {
	return string(r)
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// Replayable reports whether a row may be re-enqueued unchanged once the
// broker is healthy again. The other reasons need the payload or topic fixed first.
func (r OutboxDLQErrorReason) Replayable() bool {
	return r == OutboxDLQReasonMaxAttempts
}

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validOutboxDLQErrorReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox dlq error reason %q", value)
}
