// Package workflow models one user's pass through login, data upload, job
// entry and report download as an explicit state machine.
package workflow

import (
	"errors"
	"fmt"
)

type State int

const (
	AwaitingAuth State = iota
	AwaitingData
	AwaitingJobInfo
	ReportsReady
)

var (
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrNoReference       = errors.New("reference table is required")
)

func (s State) String() string {
	switch s {
	case AwaitingAuth:
		return "awaiting_auth"
	case AwaitingData:
		return "awaiting_data"
	case AwaitingJobInfo:
		return "awaiting_job_info"
	case ReportsReady:
		return "reports_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func transitionError(action string, from State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}
