package state

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/northfiber/concierge/agent/contract"
)

var (
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
	ErrEmptyTurn      = errors.New("turn has no content")
)

// Session is the accumulated state of one conversation thread.
//
// Messages is append-only for the lifetime of the session: turns are never
// reordered or truncated. VerifiedCustomer is present iff the most recent
// successful lookup has not been invalidated by a failed one, and is mutated
// only by the verification handler. PendingRoute survives exactly one
// controller transition after a router decision.
type Session struct {
	SessionID string          `json:"session_id"`
	Messages  []contractx.Turn `json:"messages"`

	VerifiedCustomer *contractx.CustomerRecord `json:"verified_customer,omitempty"`
	PendingRoute     contractx.RouteLabel      `json:"pending_route,omitempty"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Messages:  make([]contractx.Turn, 0, 8),
		Version:   1,
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds a turn to the message log. It is the only way the log grows;
// nothing removes entries.
func (s *Session) Append(turn contractx.Turn) error {
	if s == nil {
		return ErrNilSession
	}
	if turn.Text == "" && turn.ToolCall == nil {
		return ErrEmptyTurn
	}
	s.Messages = append(s.Messages, turn)
	return nil
}

// LastTurn returns the newest turn, if any.
func (s *Session) LastTurn() (contractx.Turn, bool) {
	if s == nil || len(s.Messages) == 0 {
		return contractx.Turn{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// TurnBeforeLast returns the second-newest turn, if any.
func (s *Session) TurnBeforeLast() (contractx.Turn, bool) {
	if s == nil || len(s.Messages) < 2 {
		return contractx.Turn{}, false
	}
	return s.Messages[len(s.Messages)-2], true
}

// LastAssistantText returns the text of the newest plain assistant turn.
func (s *Session) LastAssistantText() (string, bool) {
	if s == nil {
		return "", false
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		t := s.Messages[i]
		if t.Role == contractx.RoleAssistant && t.ToolCall == nil && t.Text != "" {
			return t.Text, true
		}
	}
	return "", false
}

// TrailingWindow returns up to n of the newest turns, oldest first.
func (s *Session) TrailingWindow(n int) []contractx.Turn {
	if s == nil || n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n > len(s.Messages) {
		n = len(s.Messages)
	}
	window := make([]contractx.Turn, n)
	copy(window, s.Messages[len(s.Messages)-n:])
	return window
}

// FindToolCall scans the log backward for the nearest assistant turn whose
// tool invocation request matches callID. A result turn with no matching
// request means the history is malformed.
func (s *Session) FindToolCall(callID string) (*contractx.ToolCall, error) {
	if s == nil {
		return nil, ErrNilSession
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		t := s.Messages[i]
		if t.IsToolCall() && t.ToolCall.ID == callID {
			return t.ToolCall, nil
		}
	}
	return nil, fmt.Errorf("%w: call_id=%s", contractx.ErrMalformedHistory, callID)
}

// SetVerifiedCustomer records a successful verification.
func (s *Session) SetVerifiedCustomer(rec *contractx.CustomerRecord) {
	s.VerifiedCustomer = rec
}

// ClearVerifiedCustomer drops the verified record after a failed lookup,
// regardless of its prior value.
func (s *Session) ClearVerifiedCustomer() {
	s.VerifiedCustomer = nil
}

// ConsumeRoute returns and clears the pending route.
func (s *Session) ConsumeRoute() (contractx.RouteLabel, bool) {
	if s == nil || s.PendingRoute == "" {
		return "", false
	}
	label := s.PendingRoute
	s.PendingRoute = ""
	return label, true
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	for i, t := range s.Messages {
		switch t.Role {
		case contractx.RoleUser, contractx.RoleAssistant, contractx.RoleTool:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, t.Role)
		}
		if t.IsToolResult() && t.ToolCallID == "" {
			return fmt.Errorf("message %d is a tool result without a call id", i)
		}
	}
	return nil
}
