package domain

import "errors"

// Error taxonomy for the rental lifecycle. All are matched with
// errors.Is by callers; ErrNotActive and ErrAlreadyTerminal are routine
// outcomes of benign races, not failures.
var (
	ErrInvalidDuration  = errors.New("invalid rental duration")
	ErrInvalidExtension = errors.New("invalid extension duration")
	ErrGameNotFound     = errors.New("game not found")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotActive        = errors.New("session is not active")
	ErrAlreadyTerminal  = errors.New("session already reached a terminal state")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
