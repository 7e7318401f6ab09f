// Package specialist holds the billing, tech support, and outage handlers.
// Each produces one reply contingent on the session holding a verified
// customer record; none of them mutates that record, and the controller
// always hands the conversation back to verification afterwards.
package specialist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/northfiber/concierge/agent/contract"
	statex "github.com/northfiber/concierge/agent/state"
)

// Specialist produces a single reply for its specialty.
type Specialist interface {
	Respond(ctx context.Context, sess *statex.Session) (contractx.Turn, error)
}

type billing struct{}

func (billing) Respond(_ context.Context, sess *statex.Session) (contractx.Turn, error) {
	rec := sess.VerifiedCustomer
	if rec == nil {
		return contractx.AssistantTurn(
			"To help with your billing query, I need to verify your account. Could you please provide your Account ID?",
		), nil
	}
	log.Debug().Str("session_id", sess.SessionID).Str("plan", rec.ServicePlan).Msg("specialist: billing reply")
	return contractx.AssistantTurn(fmt.Sprintf(
		"Okay %s, I see you're on the %s plan. Let's look into that bill together.",
		rec.Name, rec.ServicePlan,
	)), nil
}

type techSupport struct{}

func (techSupport) Respond(_ context.Context, sess *statex.Session) (contractx.Turn, error) {
	rec := sess.VerifiedCustomer
	if rec == nil {
		return contractx.AssistantTurn(
			"To troubleshoot your internet issue, I need to access your account details. Could you please provide your Account ID?",
		), nil
	}
	log.Debug().Str("session_id", sess.SessionID).Str("modem_mac", rec.ModemMAC).Msg("specialist: tech support reply")
	return contractx.AssistantTurn(fmt.Sprintf(
		"Alright %s, let's check the status of your modem (%s) and your connection.",
		rec.Name, rec.ModemMAC,
	)), nil
}

type outageCheck struct{}

func (outageCheck) Respond(_ context.Context, sess *statex.Session) (contractx.Turn, error) {
	rec := sess.VerifiedCustomer
	if rec == nil {
		return contractx.AssistantTurn(
			"To check for outages specific to your location, I need your Account ID first. Could you please provide it?",
		), nil
	}
	log.Debug().Str("session_id", sess.SessionID).Str("address", rec.Address).Bool("outage", rec.Outage).
		Msg("specialist: outage reply")
	if rec.Outage {
		return contractx.AssistantTurn(fmt.Sprintf(
			"Okay %s, I checked for reported outages near %s: there IS an active outage in your area. Crews are working on it.",
			rec.Name, rec.Address,
		)), nil
	}
	return contractx.AssistantTurn(fmt.Sprintf(
		"Okay %s, I checked for reported outages near %s: no outage is currently reported in your area.",
		rec.Name, rec.Address,
	)), nil
}

// NewRegistry maps specialist route labels to their handlers.
func NewRegistry() map[contractx.RouteLabel]Specialist {
	return map[contractx.RouteLabel]Specialist{
		contractx.RouteBilling:     billing{},
		contractx.RouteTechSupport: techSupport{},
		contractx.RouteOutageCheck: outageCheck{},
	}
}
