package workflows

import "time"

// sceneRetryPolicy is the single retry policy for scene analysis. Every
// attempt decision in the orchestrator consults it; nothing else counts
// attempts.
type sceneRetryPolicy struct {
	MaxAttempts int
	PauseBase   time.Duration
}

func defaultSceneRetryPolicy() sceneRetryPolicy {
	return sceneRetryPolicy{MaxAttempts: 3, PauseBase: 2 * time.Second}
}

// pause returns the delay before the next attempt after `failures` failed
// attempts: 2s after the first, 4s after the second.
func (p sceneRetryPolicy) pause(failures int) time.Duration {
	d := p.PauseBase
	for i := 1; i < failures; i++ {
		d *= 2
	}
	return d
}

// exhausted reports whether a scene with the given retry count is terminal.
func (p sceneRetryPolicy) exhausted(retryCount int) bool {
	return retryCount >= p.MaxAttempts
}
