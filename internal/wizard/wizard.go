// Package wizard drives linear multi-step conversation flows: each flow
// is an ordered list of prompts collecting fields into a per-user
// session, committed as a whole once the final step is answered.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-bot/internal/session"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// confirmStep is the reserved step name for flows that end with an
// explicit confirmation instead of committing on the last text answer.
const confirmStep = "_confirm"

// Validator checks a raw text answer for a step.
type Validator func(text string) error

// NonEmpty rejects blank input.
func NonEmpty() Validator {
	return func(text string) error {
		if strings.TrimSpace(text) == "" {
			return apperrors.NewValidationError("empty input", nil)
		}
		return nil
	}
}

// Step declares one prompt of a flow and the field it fills.
type Step struct {
	Field    string
	Prompt   string
	Validate Validator
}

// CommitFunc persists a completed flow from the accumulated snapshot.
// A failed commit must leave no partial record behind.
type CommitFunc func(ctx context.Context, userID int64, snap session.Session) error

// Flow is a named linear sequence of steps. When ConfirmPrompt is set
// the flow waits for an explicit confirmation after the last step;
// otherwise the last answered step triggers the commit.
type Flow struct {
	Name          string
	Steps         []Step
	ConfirmPrompt string
	Commit        CommitFunc
}

// Result tells the caller what to show the user next.
type Result struct {
	Prompt       string
	Invalid      bool
	AwaitConfirm bool
	Done         bool
}

// Engine looks up the user's current step, validates input, advances
// the session, and commits completed flows. All session access for one
// user is serialized through a per-user mutex so rapid concurrent
// inputs cannot interleave a read-modify-write.
type Engine struct {
	flows    map[string]Flow
	sessions session.Store
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine creates an engine over the given session store.
func NewEngine(sessions session.Store, logger *zap.Logger) *Engine {
	return &Engine{
		flows:    make(map[string]Flow),
		sessions: sessions,
		logger:   logger,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Register adds a flow to the engine.
func (e *Engine) Register(flow Flow) error {
	if flow.Name == "" || len(flow.Steps) == 0 || flow.Commit == nil {
		return fmt.Errorf("flow %q incomplete", flow.Name)
	}
	e.flows[flow.Name] = flow
	return nil
}

// Begin starts (or restarts) the named flow for the user, discarding
// any prior partial answers, and returns the first prompt. The seed map
// carries flow context such as the selected item id.
func (e *Engine) Begin(ctx context.Context, userID int64, flowName string, seed map[string]string) (Result, error) {
	flow, ok := e.flows[flowName]
	if !ok {
		return Result{}, apperrors.NewInternalError(fmt.Errorf("unknown flow %q", flowName))
	}

	unlock := e.lock(userID)
	defer unlock()

	first := flow.Steps[0]
	if err := e.sessions.Begin(ctx, userID, flow.Name, first.Field, seed); err != nil {
		return Result{}, err
	}
	return Result{Prompt: first.Prompt}, nil
}

// Cancel drops the user's session, discarding partial answers.
func (e *Engine) Cancel(ctx context.Context, userID int64) error {
	unlock := e.lock(userID)
	defer unlock()
	return e.sessions.Clear(ctx, userID)
}

// HandleInput processes one text answer for the user's active flow.
// With no flow in progress it returns NO_ACTIVE_FLOW; invalid input
// re-prompts the same step without advancing; the final transition
// invokes the flow's commit with the full snapshot and clears the
// session, whether the commit succeeds or not.
func (e *Engine) HandleInput(ctx context.Context, userID int64, text string) (Result, error) {
	unlock := e.lock(userID)
	defer unlock()

	snap, err := e.sessions.Snapshot(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	flow, ok := e.flows[snap.Flow]
	if !ok {
		_ = e.sessions.Clear(ctx, userID)
		return Result{}, apperrors.NewInternalError(fmt.Errorf("session references unknown flow %q", snap.Flow))
	}

	if snap.Step == confirmStep {
		return Result{Prompt: flow.ConfirmPrompt, AwaitConfirm: true}, nil
	}

	idx := stepIndex(flow, snap.Step)
	if idx < 0 {
		_ = e.sessions.Clear(ctx, userID)
		return Result{}, apperrors.NewInternalError(fmt.Errorf("session references unknown step %q of flow %q", snap.Step, snap.Flow))
	}
	step := flow.Steps[idx]

	if step.Validate != nil {
		if err := step.Validate(text); err != nil {
			return Result{Prompt: step.Prompt, Invalid: true}, nil
		}
	}

	if err := e.sessions.SetAnswer(ctx, userID, step.Field, text); err != nil {
		return Result{}, err
	}

	if idx < len(flow.Steps)-1 {
		next := flow.Steps[idx+1]
		if err := e.sessions.Advance(ctx, userID, next.Field); err != nil {
			return Result{}, err
		}
		return Result{Prompt: next.Prompt}, nil
	}

	if flow.ConfirmPrompt != "" {
		if err := e.sessions.Advance(ctx, userID, confirmStep); err != nil {
			return Result{}, err
		}
		return Result{Prompt: flow.ConfirmPrompt, AwaitConfirm: true}, nil
	}

	return e.commit(ctx, userID, flow)
}

// Confirm completes a flow waiting at its confirmation stage.
func (e *Engine) Confirm(ctx context.Context, userID int64) (Result, error) {
	unlock := e.lock(userID)
	defer unlock()

	snap, err := e.sessions.Snapshot(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if snap.Step != confirmStep {
		return Result{}, apperrors.NewValidationError("nothing to confirm", nil)
	}
	flow, ok := e.flows[snap.Flow]
	if !ok {
		_ = e.sessions.Clear(ctx, userID)
		return Result{}, apperrors.NewInternalError(fmt.Errorf("session references unknown flow %q", snap.Flow))
	}
	return e.commit(ctx, userID, flow)
}

func (e *Engine) commit(ctx context.Context, userID int64, flow Flow) (Result, error) {
	snap, err := e.sessions.Snapshot(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	// Session is gone after the final transition regardless of the
	// commit outcome; an aborted commit must not leave the wizard stuck.
	commitErr := flow.Commit(ctx, userID, snap)
	if err := e.sessions.Clear(ctx, userID); err != nil {
		e.logger.Warn("session clear failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if commitErr != nil {
		return Result{}, commitErr
	}
	return Result{Done: true}, nil
}

func (e *Engine) lock(userID int64) func() {
	e.mu.Lock()
	m, ok := e.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[userID] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func stepIndex(flow Flow, field string) int {
	for i, step := range flow.Steps {
		if step.Field == field {
			return i
		}
	}
	return -1
}
