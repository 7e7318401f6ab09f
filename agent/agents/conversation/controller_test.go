package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/northfiber/concierge/agent/contract"
	directoryx "github.com/northfiber/concierge/agent/directory"
	statex "github.com/northfiber/concierge/agent/state"
)

type scriptedText struct {
	replies []string
	err     error
}

func (s *scriptedText) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("text script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type scriptedLookup struct {
	turns []contractx.Turn
}

func (s *scriptedLookup) Generate(ctx context.Context, prompt string) (contractx.Turn, error) {
	if len(s.turns) == 0 {
		return contractx.Turn{}, errors.New("lookup script exhausted")
	}
	turn := s.turns[0]
	s.turns = s.turns[1:]
	return turn, nil
}

type scriptedIntent struct {
	choices []contractx.IntentChoice
}

func (s *scriptedIntent) Select(ctx context.Context, prompt string, options []contractx.IntentOption) (contractx.IntentChoice, error) {
	if len(s.choices) == 0 {
		return contractx.IntentChoice{}, errors.New("intent script exhausted")
	}
	choice := s.choices[0]
	s.choices = s.choices[1:]
	return choice, nil
}

type scriptedRegistry struct {
	text   *scriptedText
	lookup *scriptedLookup
	intent *scriptedIntent
}

func (s *scriptedRegistry) Text() contractx.TextModel          { return s.text }
func (s *scriptedRegistry) Lookup() contractx.ToolCallingModel { return s.lookup }
func (s *scriptedRegistry) Intent() contractx.IntentModel      { return s.intent }

func lookupCall(id, accountID string) contractx.Turn {
	return contractx.ToolCallTurn(contractx.ToolCall{
		ID:       id,
		Name:     contractx.ToolCustomerLookup,
		Argument: accountID,
	})
}

func newTestController(t *testing.T, store statex.Store, reg *scriptedRegistry) *Controller {
	t.Helper()
	ctrl, err := New(store, reg, directoryx.NewStatic())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctrl.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return ctrl
}

func TestHandleUserInputRejectsBlankInput(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(t, statex.NewMemoryStore(), &scriptedRegistry{
		text: &scriptedText{}, lookup: &scriptedLookup{}, intent: &scriptedIntent{},
	})
	ctx := context.Background()

	if _, err := ctrl.HandleUserInput(ctx, "thread-1", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("HandleUserInput(blank) error = %v, want ErrInvalidMessage", err)
	}
	if _, err := ctrl.HandleUserInput(ctx, "  ", "hello"); !errors.Is(err, ErrInvalidThread) {
		t.Fatalf("HandleUserInput(blank thread) error = %v, want ErrInvalidThread", err)
	}
}

func TestHandleUserInputGreetingWithoutID(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			contractx.AssistantTurn("Hello! How can I help you today?"),
		}},
		intent: &scriptedIntent{},
	})

	reply, err := ctrl.HandleUserInput(context.Background(), "thread-1", "hello")
	if err != nil {
		t.Fatalf("HandleUserInput() error = %v", err)
	}
	if reply != "Hello! How can I help you today?" {
		t.Fatalf("reply = %q, want greeting", reply)
	}

	sess, err := store.Load(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (user + assistant)", len(sess.Messages))
	}
	if sess.VerifiedCustomer != nil {
		t.Fatal("VerifiedCustomer set without any lookup")
	}
}

func TestHandleUserInputVerificationFlow(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{},
	})

	reply, err := ctrl.HandleUserInput(context.Background(), "thread-1", "my account id is 12345")
	if err != nil {
		t.Fatalf("HandleUserInput() error = %v", err)
	}
	if !strings.Contains(reply, "Alice") {
		t.Fatalf("reply = %q, want acknowledgement by name", reply)
	}

	sess, err := store.Load(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// user, tool call, tool result, assistant ack
	if len(sess.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(sess.Messages))
	}
	if !sess.Messages[1].IsToolCall() {
		t.Fatalf("messages[1] = %+v, want tool call", sess.Messages[1])
	}
	if !sess.Messages[2].IsToolResult() || !strings.Contains(sess.Messages[2].Text, "Alice Wonderland") {
		t.Fatalf("messages[2] = %+v, want lookup summary", sess.Messages[2])
	}
	if sess.VerifiedCustomer == nil || sess.VerifiedCustomer.AccountID != "12345" {
		t.Fatalf("VerifiedCustomer = %+v, want Alice record", sess.VerifiedCustomer)
	}
	if sess.VerifiedCustomer.ModemMAC != "AA:BB:CC:00:11:22" {
		t.Fatalf("VerifiedCustomer.ModemMAC = %q, want directory record", sess.VerifiedCustomer.ModemMAC)
	}
}

func TestHandleUserInputFailedLookup(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"I'm sorry, I couldn't find that account ID. Could you provide a valid account ID?",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "99999"),
		}},
		intent: &scriptedIntent{},
	})

	reply, err := ctrl.HandleUserInput(context.Background(), "thread-1", "my id is 99999")
	if err != nil {
		t.Fatalf("HandleUserInput() error = %v", err)
	}
	if !strings.Contains(strings.ToLower(reply), "account id") {
		t.Fatalf("reply = %q, want a renewed account id request", reply)
	}

	sess, err := store.Load(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.VerifiedCustomer != nil {
		t.Fatalf("VerifiedCustomer = %+v after failed lookup, want nil", sess.VerifiedCustomer)
	}
	if !strings.Contains(sess.Messages[2].Text, "not found in the system") {
		t.Fatalf("messages[2] = %q, want not-found summary", sess.Messages[2].Text)
	}
}

func TestHandleUserInputBillingFlow(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
			"I understand, let me check your billing details.",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{choices: []contractx.IntentChoice{
			{Name: contractx.IntentRouteToBilling, Reason: "bill question"},
		}},
	})
	ctx := context.Background()

	if _, err := ctrl.HandleUserInput(ctx, "thread-1", "12345"); err != nil {
		t.Fatalf("HandleUserInput(verify) error = %v", err)
	}

	reply, err := ctrl.HandleUserInput(ctx, "thread-1", "why is my bill so high?")
	if err != nil {
		t.Fatalf("HandleUserInput(billing) error = %v", err)
	}
	if !strings.Contains(reply, "FiberOptic 500Mbps") {
		t.Fatalf("reply = %q, want the verified plan name", reply)
	}

	sess, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.PendingRoute != "" {
		t.Fatalf("PendingRoute = %q after specialist turn, want consumed", sess.PendingRoute)
	}
	last, _ := sess.LastTurn()
	if !strings.Contains(last.Text, "bill") {
		t.Fatalf("last turn = %q, want billing reply", last.Text)
	}
}

func TestHandleUserInputOutageFlow(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
			"Sorry to hear that, let me check for outages.",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{choices: []contractx.IntentChoice{
			{Name: contractx.IntentRouteToOutageCheck, Reason: "suspects outage"},
		}},
	})
	ctx := context.Background()

	if _, err := ctrl.HandleUserInput(ctx, "thread-1", "12345"); err != nil {
		t.Fatalf("HandleUserInput(verify) error = %v", err)
	}

	reply, err := ctrl.HandleUserInput(ctx, "thread-1", "is there an outage in my area?")
	if err != nil {
		t.Fatalf("HandleUserInput(outage) error = %v", err)
	}
	if !strings.Contains(reply, "IS an active outage") {
		t.Fatalf("reply = %q, want active outage report for 12345", reply)
	}
	if !strings.Contains(reply, "123 Rabbit Hole Lane") {
		t.Fatalf("reply = %q, want the service address", reply)
	}
}

func TestHandleUserInputEndTerminates(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
			"You're welcome! Goodbye.",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{choices: []contractx.IntentChoice{
			{Name: contractx.IntentRouteToEnd, Reason: "user said goodbye"},
		}},
	})
	ctx := context.Background()

	if _, err := ctrl.HandleUserInput(ctx, "thread-1", "12345"); err != nil {
		t.Fatalf("HandleUserInput(verify) error = %v", err)
	}

	reply, err := ctrl.HandleUserInput(ctx, "thread-1", "thanks, that's all")
	if err != nil {
		t.Fatalf("HandleUserInput(end) error = %v", err)
	}
	if reply != "You're welcome! Goodbye." {
		t.Fatalf("reply = %q, want farewell", reply)
	}

	sess, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	last, _ := sess.LastTurn()
	if last.Text != "You're welcome! Goodbye." {
		t.Fatalf("last turn = %q, want farewell persisted", last.Text)
	}
}

func TestHandleUserInputMessagesAreAppendOnly(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
			"I understand, let me check your billing details.",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{choices: []contractx.IntentChoice{
			{Name: contractx.IntentRouteToBilling},
		}},
	})
	ctx := context.Background()

	var prev []contractx.Turn
	for _, input := range []string{"12345", "why is my bill so high?"} {
		if _, err := ctrl.HandleUserInput(ctx, "thread-1", input); err != nil {
			t.Fatalf("HandleUserInput(%q) error = %v", input, err)
		}
		sess, err := store.Load(ctx, "thread-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(sess.Messages) <= len(prev) {
			t.Fatalf("messages shrank: %d -> %d", len(prev), len(sess.Messages))
		}
		for i := range prev {
			if sess.Messages[i].Text != prev[i].Text || sess.Messages[i].Role != prev[i].Role {
				t.Fatalf("messages[%d] changed from %+v to %+v", i, prev[i], sess.Messages[i])
			}
		}
		prev = sess.Messages
	}
}

func TestHandleUserInputDeterministicReplay(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T) []byte {
		t.Helper()
		store := statex.NewMemoryStore()
		ctrl := newTestController(t, store, &scriptedRegistry{
			text: &scriptedText{replies: []string{
				"Thanks Alice! I've verified your account. How can I help you today?",
				"I understand, let me check your billing details.",
			}},
			lookup: &scriptedLookup{turns: []contractx.Turn{
				lookupCall("call-1", "12345"),
			}},
			intent: &scriptedIntent{choices: []contractx.IntentChoice{
				{Name: contractx.IntentRouteToBilling},
			}},
		})
		ctx := context.Background()
		for _, input := range []string{"12345", "why is my bill so high?"} {
			if _, err := ctrl.HandleUserInput(ctx, "thread-1", input); err != nil {
				t.Fatalf("HandleUserInput(%q) error = %v", input, err)
			}
		}
		sess, err := store.Load(ctx, "thread-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		payload, err := json.Marshal(sess)
		if err != nil {
			t.Fatalf("marshal session: %v", err)
		}
		return payload
	}

	first := run(t)
	second := run(t)
	if string(first) != string(second) {
		t.Fatalf("replay diverged:\n%s\n%s", first, second)
	}
}

func TestHandleUserInputModelFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	modelErr := errors.New("upstream unavailable")
	ctrl := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{err: modelErr},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{},
	})
	ctx := context.Background()

	if _, err := ctrl.HandleUserInput(ctx, "thread-1", "12345"); !errors.Is(err, modelErr) {
		t.Fatalf("HandleUserInput() error = %v, want model error", err)
	}
	if _, err := store.Load(ctx, "thread-1"); !errors.Is(err, statex.ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound (failed turn must not persist)", err)
	}
}

func TestHandleUserInputResumesAcrossControllers(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctx := context.Background()

	first := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Thanks Alice! I've verified your account. How can I help you today?",
		}},
		lookup: &scriptedLookup{turns: []contractx.Turn{
			lookupCall("call-1", "12345"),
		}},
		intent: &scriptedIntent{},
	})
	if _, err := first.HandleUserInput(ctx, "thread-1", "12345"); err != nil {
		t.Fatalf("HandleUserInput(verify) error = %v", err)
	}

	second := newTestController(t, store, &scriptedRegistry{
		text: &scriptedText{replies: []string{
			"Sorry to hear that, let me take a look.",
		}},
		lookup: &scriptedLookup{},
		intent: &scriptedIntent{choices: []contractx.IntentChoice{
			{Name: contractx.IntentRouteToTechSupport},
		}},
	})
	reply, err := second.HandleUserInput(ctx, "thread-1", "my internet is really slow")
	if err != nil {
		t.Fatalf("HandleUserInput(resume) error = %v", err)
	}
	if !strings.Contains(reply, "AA:BB:CC:00:11:22") {
		t.Fatalf("reply = %q, want modem check using the persisted verified record", reply)
	}
}
