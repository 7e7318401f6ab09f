// Package directory resolves account identifiers to customer records.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/northfiber/concierge/agent/contract"
)

// StaticDirectory serves a fixed set of records from memory. It backs the
// demo driver and tests; lookups are pure and never mutate anything.
type StaticDirectory struct {
	records map[string]contractx.CustomerRecord
}

// NewStatic returns a directory seeded with the demo accounts.
func NewStatic() *StaticDirectory {
	return &StaticDirectory{
		records: map[string]contractx.CustomerRecord{
			"12345": {
				AccountID:   "12345",
				Name:        "Alice Wonderland",
				Address:     "123 Rabbit Hole Lane",
				ServicePlan: "FiberOptic 500Mbps",
				ModemMAC:    "AA:BB:CC:00:11:22",
				Status:      "Active",
				Outage:      true,
			},
			"67890": {
				AccountID:   "67890",
				Name:        "Bob The Builder",
				Address:     "456 Construction Way",
				ServicePlan: "Cable 100Mbps",
				ModemMAC:    "DD:EE:FF:33:44:55",
				Status:      "Active",
				Outage:      false,
			},
			"55555": {
				AccountID:   "55555",
				Name:        "Charlie Chaplin",
				Address:     "789 Silent Film Ave",
				ServicePlan: "DSL 50Mbps",
				ModemMAC:    "GG:HH:II:66:77:88",
				Status:      "Suspended (Payment)",
				Outage:      true,
			},
		},
	}
}

func (d *StaticDirectory) Lookup(ctx context.Context, accountID string) (*contractx.CustomerRecord, error) {
	id := strings.TrimSpace(accountID)
	rec, ok := d.records[id]
	if !ok {
		log.Debug().Str("account_id", id).Msg("directory: account not found")
		return nil, fmt.Errorf("%w: account_id=%s", contractx.ErrAccountNotFound, id)
	}
	log.Debug().Str("account_id", id).Str("name", rec.Name).Msg("directory: account resolved")
	out := rec
	return &out, nil
}

// SummarizeLookup renders the human-readable tool result the model sees. The
// structured record is never put on the wire; handlers re-fetch it.
func SummarizeLookup(rec *contractx.CustomerRecord, accountID string) string {
	if rec == nil {
		return fmt.Sprintf("Customer account ID '%s' not found in the system.", accountID)
	}
	return fmt.Sprintf("Successfully found customer: Name: %s, Plan: %s, Status: %s.",
		rec.Name, rec.ServicePlan, rec.Status)
}
