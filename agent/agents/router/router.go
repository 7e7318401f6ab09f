// Package router classifies the latest conversational turn into exactly one
// target handler, or conversation termination.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/northfiber/concierge/agent/contract"
	statex "github.com/northfiber/concierge/agent/state"
)

// contextWindow is how many trailing turns the classifier sees.
const contextWindow = 3

var intentOptions = []contractx.IntentOption{
	{Name: contractx.IntentRouteToBilling, Description: "Use for questions about bills, charges, payments, invoices."},
	{Name: contractx.IntentRouteToTechSupport, Description: "Use for issues with internet speed, connectivity, modem problems, service not working."},
	{Name: contractx.IntentRouteToOutageCheck, Description: "Use specifically when the user suspects or asks about an outage in their area, or reports being in one."},
	{Name: contractx.IntentRouteToGeneralInteraction, Description: "Use if the request is unclear, needs clarification, is a general comment, or a follow-up after a previous step."},
	{Name: contractx.IntentRouteToEnd, Description: "Use if the user indicates the conversation is finished (e.g. 'thank you', 'bye', 'that's all')."},
}

type Router struct {
	intent contractx.IntentModel
}

func New(models contractx.Registry) (*Router, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	return &Router{intent: models.Intent()}, nil
}

// Classify decides the next handler from the trailing conversation window and
// the verification status. The model may disagree with itself across calls on
// identical input; the override and fallback rules below bound the damage.
func (r *Router) Classify(ctx context.Context, sess *statex.Session) (contractx.RouteLabel, error) {
	choice, err := r.intent.Select(ctx, classifyPrompt(sess), intentOptions)
	if err != nil {
		return "", err
	}

	last, _ := sess.LastTurn()

	if choice.Name == "" {
		label := fallbackLabel(last, choice.Content)
		log.Debug().Str("session_id", sess.SessionID).Str("label", string(label)).
			Msg("router: model declined to select, applying fallback")
		return label, nil
	}

	label := mapIntent(sess, choice.Name)

	// An unresolved identification request pins the conversation: no
	// specialist may run until the user has answered.
	if label != contractx.RouteGeneralInteraction && label != contractx.RouteEnd {
		if last.Role == contractx.RoleAssistant && !last.IsToolCall() &&
			contractx.IsIdentificationRequest(last.Text) {
			log.Warn().Str("session_id", sess.SessionID).Str("selected", choice.Name).
				Msg("router: overriding route while identification request is outstanding")
			return contractx.RouteGeneralInteraction, nil
		}
	}

	log.Info().Str("session_id", sess.SessionID).Str("label", string(label)).
		Str("reason", choice.Reason).Msg("router: route selected")
	return label, nil
}

func mapIntent(sess *statex.Session, name string) contractx.RouteLabel {
	switch name {
	case contractx.IntentRouteToBilling:
		return contractx.RouteBilling
	case contractx.IntentRouteToTechSupport:
		return contractx.RouteTechSupport
	case contractx.IntentRouteToOutageCheck:
		return contractx.RouteOutageCheck
	case contractx.IntentRouteToGeneralInteraction:
		return contractx.RouteGeneralInteraction
	case contractx.IntentRouteToEnd:
		return contractx.RouteEnd
	default:
		log.Warn().Str("session_id", sess.SessionID).Str("intent", name).
			Msg("router: unrecognized route label, defaulting to general interaction")
		return contractx.RouteGeneralInteraction
	}
}

// fallbackLabel applies the no-selection policy: a user turn keeps the
// conversation with general interaction; otherwise the model's free text is
// checked for closing phrases before the turn is treated as conclusive.
func fallbackLabel(last contractx.Turn, content string) contractx.RouteLabel {
	if last.Role == contractx.RoleUser {
		return contractx.RouteGeneralInteraction
	}
	if contractx.IsClosingRemark(content) {
		return contractx.RouteGeneralInteraction
	}
	return contractx.RouteEnd
}

func classifyPrompt(sess *statex.Session) string {
	identity := "UNKNOWN"
	if sess.VerifiedCustomer != nil {
		identity = fmt.Sprintf("KNOWN (%s)", sess.VerifiedCustomer.Name)
	}
	return fmt.Sprintf(`The user's identity is %s.
Determine the most appropriate next step for the user's latest request or statement,
based specifically on the last message in the context of the conversation.

Recent conversation:
%s`,
		identity, contractx.Transcript(sess.TrailingWindow(contextWindow)))
}
