package thumbs

import "fmt"

// ReasonMaxAttempts marks a retry record whose budget is spent.
const ReasonMaxAttempts = "max_attempts"

// Decision is the outcome of the retry policy for one failed generation.
type Decision struct {
	CanRetry   bool
	Attempt    int
	Reason     string
	KeepRecord bool
}

// Decide applies the bounded retry policy. attemptsSoFar counts completed
// failed attempts; when the budget is exhausted the record is kept for
// operator visibility rather than deleted. A negative attemptsSoFar is a
// programming error and panics.
func Decide(attemptsSoFar, maxAttempts int) Decision {
	if attemptsSoFar < 0 {
		panic(fmt.Sprintf("thumbs: negative attempt count %d", attemptsSoFar))
	}
	if attemptsSoFar >= maxAttempts {
		return Decision{
			CanRetry:   false,
			Attempt:    attemptsSoFar,
			Reason:     ReasonMaxAttempts,
			KeepRecord: true,
		}
	}
	return Decision{
		CanRetry: true,
		Attempt:  attemptsSoFar + 1,
	}
}
