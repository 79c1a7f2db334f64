package gradle

import (
	"fmt"
	"log/slog"
)

// State is the progress of one run
type State string

const (
	StateInit           State = "INIT"
	StatePatching       State = "PATCHING"
	StateMounting       State = "MOUNTING"
	StateExecuting      State = "EXECUTING"
	StateResultCaptured State = "RESULT_CAPTURED"
	StateCacheExporting State = "CACHE_EXPORTING"
	StateDone           State = "DONE"
	StateAborted        State = "ABORTED"
)

// IsTerminal reports whether no transition leaves s
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAborted
}

// CanTransition reports whether a run may go from one state to another
func CanTransition(from, to State) bool {
	switch from {
	case StateInit:
		return to == StatePatching
	case StatePatching:
		return to == StateMounting || to == StateAborted
	case StateMounting:
		return to == StateExecuting || to == StateAborted
	case StateExecuting:
		// Aborted only when the engine itself fails, a failing task still
		// gets its result captured.
		return to == StateResultCaptured || to == StateAborted
	case StateResultCaptured:
		return to == StateCacheExporting
	case StateCacheExporting:
		return to == StateDone
	default:
		return false
	}
}

// progress walks one run through the state machine
type progress struct {
	id      string
	state   State
	tracker Tracker
	logger  *slog.Logger
}

func newProgress(tracker Tracker, logger *slog.Logger, connector, task string) *progress {
	p := &progress{
		state:   StateInit,
		tracker: tracker,
		logger:  logger,
	}
	if tracker != nil {
		p.id = tracker.Begin(connector, task)
	}
	return p
}

func (p *progress) advance(to State) error {
	if !CanTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}

	if p.tracker != nil {
		if err := p.tracker.Transition(p.id, p.state, to); err != nil {
			// Tracking is informational, the run goes on
			p.logger.Warn("failed to track run state", "run", p.id, "state", to, "error", err)
		}
	}

	p.logger.Debug("run state changed", "run", p.id, "from", p.state, "to", to)
	p.state = to
	return nil
}

func (p *progress) abort() {
	if err := p.advance(StateAborted); err != nil {
		p.logger.Error("failed to abort run", "run", p.id, "error", err)
	}
}
