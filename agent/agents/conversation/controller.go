// Package conversation sequences verification, routing, and the specialist
// handlers over a persistent session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/northfiber/concierge/agent/agents/router"
	"github.com/northfiber/concierge/agent/agents/specialist"
	"github.com/northfiber/concierge/agent/agents/verify"
	contractx "github.com/northfiber/concierge/agent/contract"
	directoryx "github.com/northfiber/concierge/agent/directory"
	statex "github.com/northfiber/concierge/agent/state"
)

// Phase is a conversation controller state.
type Phase string

const (
	PhaseVerifying   Phase = "verifying"
	PhaseRouting     Phase = "routing"
	PhaseBilling     Phase = "billing"
	PhaseTechSupport Phase = "tech_support"
	PhaseOutageCheck Phase = "outage_check"
	PhaseTerminated  Phase = "terminated"
)

// maxStepsPerTurn bounds the walk through the state machine for one user
// turn. The longest legitimate walk is verify -> lookup -> verify -> route ->
// specialist -> verify; anything near the bound is a logic bug, not load.
const maxStepsPerTurn = 12

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidThread  = errors.New("thread id is empty")
	ErrTurnNotSettled = errors.New("turn did not settle")
)

type Controller struct {
	store       statex.Store
	directory   contractx.Directory
	verifier    *verify.Handler
	router      *router.Router
	specialists map[contractx.RouteLabel]specialist.Specialist

	now func() time.Time
}

func New(store statex.Store, models contractx.Registry, directory contractx.Directory) (*Controller, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if directory == nil {
		return nil, errors.New("account directory is required")
	}

	verifier, err := verify.New(models, directory)
	if err != nil {
		return nil, err
	}
	rt, err := router.New(models)
	if err != nil {
		return nil, err
	}

	return &Controller{
		store:       store,
		directory:   directory,
		verifier:    verifier,
		router:      rt,
		specialists: specialist.NewRegistry(),
		now:         time.Now,
	}, nil
}

// HandleUserInput runs one synchronous walk through the state machine for a
// single user turn and returns the assistant's reply. The session is saved
// only after the walk succeeds; any failure leaves the stored session in its
// pre-turn state so the same input can be retried.
func (c *Controller) HandleUserInput(ctx context.Context, threadID, text string) (string, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return "", ErrInvalidThread
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidMessage
	}

	sess, err := c.loadOrCreate(ctx, threadID)
	if err != nil {
		return "", err
	}

	if err := sess.Append(contractx.UserTurn(text)); err != nil {
		return "", err
	}

	if err := c.walk(ctx, sess); err != nil {
		return "", err
	}

	sess.Touch(c.now())
	if err := sess.Validate(); err != nil {
		return "", err
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return "", err
	}

	reply, ok := sess.LastAssistantText()
	if !ok {
		return "", fmt.Errorf("%w: no assistant reply produced", ErrTurnNotSettled)
	}
	return reply, nil
}

// walk advances phases until the turn awaits the next user input or the
// conversation terminates.
func (c *Controller) walk(ctx context.Context, sess *statex.Session) error {
	phase := PhaseVerifying
	routed := false

	for step := 0; step < maxStepsPerTurn; step++ {
		switch phase {
		case PhaseVerifying:
			next, done, err := c.stepVerifying(ctx, sess, routed)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			phase = next

		case PhaseRouting:
			routed = true
			next, done, err := c.stepRouting(ctx, sess)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			phase = next

		case PhaseBilling, PhaseTechSupport, PhaseOutageCheck:
			if err := c.stepSpecialist(ctx, sess); err != nil {
				return err
			}
			phase = PhaseVerifying

		case PhaseTerminated:
			return nil
		}
	}
	return fmt.Errorf("%w: exceeded %d steps", ErrTurnNotSettled, maxStepsPerTurn)
}

// stepVerifying is the Verifying state. It executes pending lookups, runs the
// verification handler on fresh user/tool input, and decides whether the
// turn proceeds to routing or waits for the user.
func (c *Controller) stepVerifying(
	ctx context.Context,
	sess *statex.Session,
	routed bool,
) (Phase, bool, error) {
	last, ok := sess.LastTurn()
	if !ok {
		return "", false, fmt.Errorf("%w: session has no turns", contractx.ErrValidation)
	}

	// A pending tool invocation suspends verification until the lookup
	// result is on the log.
	if last.IsToolCall() {
		if err := c.executeLookup(ctx, sess, *last.ToolCall); err != nil {
			return "", false, err
		}
		return PhaseVerifying, false, nil
	}

	// Fresh user input or a lookup result: the verification handler speaks.
	if last.Role == contractx.RoleUser || last.IsToolResult() {
		turn, err := c.verifier.Handle(ctx, sess)
		if err != nil {
			return "", false, err
		}
		if err := sess.Append(turn); err != nil {
			return "", false, err
		}
		return PhaseVerifying, false, nil
	}

	// The assistant just replied. A waiting prompt ends the turn; a plain
	// acknowledgement to a verified user's message opens routing, once.
	if contractx.IsWaitingPrompt(last.Text) {
		log.Debug().Str("session_id", sess.SessionID).Msg("conversation: assistant is waiting for input")
		return "", true, nil
	}
	if sess.VerifiedCustomer != nil && !routed {
		if prev, ok := sess.TurnBeforeLast(); ok && prev.Role == contractx.RoleUser {
			return PhaseRouting, false, nil
		}
	}
	return "", true, nil
}

func (c *Controller) stepRouting(ctx context.Context, sess *statex.Session) (Phase, bool, error) {
	label, err := c.router.Classify(ctx, sess)
	if err != nil {
		return "", false, err
	}

	switch label {
	case contractx.RouteBilling:
		sess.PendingRoute = label
		return PhaseBilling, false, nil
	case contractx.RouteTechSupport:
		sess.PendingRoute = label
		return PhaseTechSupport, false, nil
	case contractx.RouteOutageCheck:
		sess.PendingRoute = label
		return PhaseOutageCheck, false, nil
	case contractx.RouteEnd:
		log.Info().Str("session_id", sess.SessionID).Msg("conversation: terminated")
		return PhaseTerminated, false, nil
	default:
		// General interaction: the acknowledgement the user just received
		// stands, and the turn waits for their next message.
		return "", true, nil
	}
}

func (c *Controller) stepSpecialist(ctx context.Context, sess *statex.Session) error {
	label, ok := sess.ConsumeRoute()
	if !ok {
		return fmt.Errorf("%w: specialist phase without pending route", contractx.ErrValidation)
	}
	sp, ok := c.specialists[label]
	if !ok {
		return fmt.Errorf("%w: no specialist for label %q", contractx.ErrValidation, label)
	}

	turn, err := sp.Respond(ctx, sess)
	if err != nil {
		return err
	}
	return sess.Append(turn)
}

// executeLookup runs the requested directory lookup and appends its result
// turn. Not-found is a valid outcome and lands on the log as a summary the
// verification handler will branch on.
func (c *Controller) executeLookup(ctx context.Context, sess *statex.Session, call contractx.ToolCall) error {
	if call.Name != contractx.ToolCustomerLookup {
		return fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, call.Name)
	}

	rec, err := c.directory.Lookup(ctx, call.Argument)
	if err != nil && !errors.Is(err, contractx.ErrAccountNotFound) {
		return err
	}
	summary := directoryx.SummarizeLookup(rec, call.Argument)

	log.Debug().Str("session_id", sess.SessionID).Str("account_id", call.Argument).
		Bool("found", rec != nil).Msg("conversation: executed lookup")
	return sess.Append(contractx.ToolResultTurn(call.ID, call.Name, summary))
}

func (c *Controller) loadOrCreate(ctx context.Context, threadID string) (*statex.Session, error) {
	sess, err := c.store.Load(ctx, threadID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, statex.ErrSessionNotFound) {
		return nil, err
	}
	log.Debug().Str("session_id", threadID).Msg("conversation: starting new session")
	return statex.NewSession(threadID, c.now()), nil
}
