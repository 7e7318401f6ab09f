// Package verify owns the identification sub-dialogue: collecting an account
// id, resolving it against the directory, and keeping the session's verified
// customer record honest.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/northfiber/concierge/agent/contract"
	statex "github.com/northfiber/concierge/agent/state"
)

type Handler struct {
	text      contractx.TextModel
	lookup    contractx.ToolCallingModel
	directory contractx.Directory
}

func New(models contractx.Registry, directory contractx.Directory) (*Handler, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if directory == nil {
		return nil, errors.New("account directory is required")
	}
	return &Handler{
		text:      models.Text(),
		lookup:    models.Lookup(),
		directory: directory,
	}, nil
}

// Handle produces the next assistant turn for the verification state. It is
// the only code that mutates the session's verified customer record, and it
// does so atomically with producing the accompanying reply: on error the
// session is left untouched.
func (h *Handler) Handle(ctx context.Context, sess *statex.Session) (contractx.Turn, error) {
	last, ok := sess.LastTurn()
	if !ok {
		return contractx.Turn{}, fmt.Errorf("%w: session has no turns", contractx.ErrValidation)
	}

	switch {
	case last.IsToolResult() && last.ToolName == contractx.ToolCustomerLookup:
		return h.handleLookupResult(ctx, sess, last)
	case sess.VerifiedCustomer != nil:
		return h.handleVerifiedChat(ctx, sess)
	default:
		return h.handleUnverified(ctx, sess, last)
	}
}

// handleLookupResult processes the outcome of an executed lookup. The result
// turn only carries a summary string, so the structured record is re-fetched
// from the directory before it lands on the session.
func (h *Handler) handleLookupResult(
	ctx context.Context,
	sess *statex.Session,
	result contractx.Turn,
) (contractx.Turn, error) {
	accountID := ""
	call, err := sess.FindToolCall(result.ToolCallID)
	if err != nil {
		// Malformed history: treat the id as never provided.
		log.Warn().Str("session_id", sess.SessionID).Str("call_id", result.ToolCallID).
			Msg("verify: lookup result has no matching request")
	} else {
		accountID = call.Argument
	}

	var rec *contractx.CustomerRecord
	if accountID != "" {
		rec, err = h.directory.Lookup(ctx, accountID)
		if err != nil && !errors.Is(err, contractx.ErrAccountNotFound) {
			return contractx.Turn{}, err
		}
	}

	if rec == nil {
		reply, err := h.text.Generate(ctx, failedLookupPrompt(sess, result.Text))
		if err != nil {
			return contractx.Turn{}, err
		}
		sess.ClearVerifiedCustomer()
		log.Info().Str("session_id", sess.SessionID).Str("account_id", accountID).
			Msg("verify: lookup failed, customer cleared")
		return contractx.AssistantTurn(reply), nil
	}

	reply, err := h.text.Generate(ctx, successfulLookupPrompt(sess, result.Text))
	if err != nil {
		return contractx.Turn{}, err
	}
	sess.SetVerifiedCustomer(rec)
	log.Info().Str("session_id", sess.SessionID).Str("account_id", rec.AccountID).
		Str("name", rec.Name).Msg("verify: customer verified")
	return contractx.AssistantTurn(reply), nil
}

func (h *Handler) handleVerifiedChat(ctx context.Context, sess *statex.Session) (contractx.Turn, error) {
	reply, err := h.text.Generate(ctx, verifiedChatPrompt(sess))
	if err != nil {
		return contractx.Turn{}, err
	}
	return contractx.AssistantTurn(reply), nil
}

// handleUnverified asks the model to do exactly one of: request a lookup,
// ask for an account id, or answer directly. The model's single response,
// text or tool call, becomes the new turn.
func (h *Handler) handleUnverified(
	ctx context.Context,
	sess *statex.Session,
	last contractx.Turn,
) (contractx.Turn, error) {
	turn, err := h.lookup.Generate(ctx, unverifiedPrompt(sess, last.Text))
	if err != nil {
		return contractx.Turn{}, err
	}
	if turn.IsToolCall() {
		log.Debug().Str("session_id", sess.SessionID).
			Str("account_id", turn.ToolCall.Argument).
			Msg("verify: model requested lookup")
	}
	return turn, nil
}

func successfulLookupPrompt(sess *statex.Session, toolResult string) string {
	return fmt.Sprintf(`You just successfully looked up the customer using their account ID. Their details have been retrieved.
Tool result: %s
Conversation so far:
%s

Acknowledge the customer by name and confirm you have their details (no need to repeat the details unless relevant).
Ask how you can specifically help them now that they are verified.`,
		toolResult, contractx.Transcript(sess.Messages))
}

func failedLookupPrompt(sess *statex.Session, toolResult string) string {
	return fmt.Sprintf(`The attempt to look up the customer's account ID failed.
Tool result: %s
Conversation so far:
%s

Inform the user that the account ID was not found and ask them to please provide a valid account ID to proceed, or ask if they need help finding it.`,
		toolResult, contractx.Transcript(sess.Messages))
}

func verifiedChatPrompt(sess *statex.Session) string {
	rec := sess.VerifiedCustomer
	return fmt.Sprintf(`You ALREADY have the customer's information (Name: %s, Plan: %s).
Conversation so far:
%s

Based on the latest message, understand the user's request and respond conversationally.
You DO NOT need to ask for the account ID again. Determine the user's core issue (e.g. billing, tech support, outage).`,
		rec.Name, rec.ServicePlan, contractx.Transcript(sess.Messages))
}

func unverifiedPrompt(sess *statex.Session, latest string) string {
	return fmt.Sprintf(`You DO NOT have the customer's information yet.
Conversation so far:
%s

Carefully analyze the latest user message: %q

Follow these steps IN ORDER:

1. General greeting/statement: if the message is a simple greeting, a general statement, or a question NOT requiring account info, give a brief conversational response. Do NOT ask for an ID and do NOT call any tools.
2. Needs verification, no ID provided: if the request requires account context and no account ID was given, politely ask JUST for their account ID. Do NOT call any tools.
3. Account ID provided: if the message clearly provides what looks like an account ID (e.g. mainly digits like '12345', or 'my id is 67890'), call the customer_lookup tool with ONLY the extracted ID and no conversational text.

Choose ONLY ONE of the above actions. Prioritize step 1, then step 2, then step 3. Be concise.`,
		contractx.Transcript(sess.Messages), latest)
}
