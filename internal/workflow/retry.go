package workflow

// RetryGuard bounds the number of classification attempts per session.
//
// The attempt being decided counts against the limit: with a limit of L the
// first L-1 failures ask the user for a new image and the L-th ends the
// workflow. RequestRetry and MaxRetries each record the failed attempt, so
// AttemptCount never exceeds AttemptLimit.
type RetryGuard struct{}

// Exhausted reports whether the current failed attempt is the last one allowed.
func (RetryGuard) Exhausted(s State) bool {
	return s.AttemptCount+1 >= s.AttemptLimit
}

// Remaining returns how many attempts the user has left, including the current one.
func (RetryGuard) Remaining(s State) int {
	return max(s.AttemptLimit-s.AttemptCount, 0)
}
