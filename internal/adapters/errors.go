package adapters

import "errors"

var (
	// ErrChallenge means the source served an anti-automation challenge
	// that did not clear within the bounded wait.
	ErrChallenge = errors.New("anti-automation challenge not cleared")
	// ErrSessionLost means an established session stopped being honored
	// mid-run and must be re-acquired.
	ErrSessionLost = errors.New("session no longer honored")
)
