package store

import (
	"errors"
)

// Outcome says which backend served an operation.
type Outcome int

const (
	// OutcomeRemote means the remote API handled the operation.
	OutcomeRemote Outcome = iota
	// OutcomeFallback means the remote API failed and local storage was used.
	OutcomeFallback
	// OutcomeFailed means neither backend could serve the operation.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRemote:
		return "remote"
	case OutcomeFallback:
		return "fallback"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes how a store operation went. Callers that do not care can
// ignore it; the store never panics or aborts because a backend failed.
type Result struct {
	Outcome   Outcome
	RemoteErr error
	LocalErr  error
}

// Err is nil unless the operation failed on both backends.
func (r Result) Err() error {
	if r.Outcome != OutcomeFailed {
		return nil
	}
	if r.RemoteErr == nil && r.LocalErr == nil {
		return errors.New("store operation failed")
	}
	return errors.Join(r.RemoteErr, r.LocalErr)
}

// Degraded reports whether the remote API was not the one serving the operation.
func (r Result) Degraded() bool {
	return r.Outcome != OutcomeRemote
}

func remoteResult() Result {
	return Result{Outcome: OutcomeRemote}
}

func fallbackResult(remoteErr error) Result {
	return Result{Outcome: OutcomeFallback, RemoteErr: remoteErr}
}

func failedResult(remoteErr, localErr error) Result {
	return Result{Outcome: OutcomeFailed, RemoteErr: remoteErr, LocalErr: localErr}
}
