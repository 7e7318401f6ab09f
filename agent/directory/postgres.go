package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/northfiber/concierge/agent/contract"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type customerRow struct {
	bun.BaseModel `bun:"table:customers"`

	AccountID   string `bun:"account_id,pk"`
	Name        string `bun:"name"`
	Address     string `bun:"address"`
	ServicePlan string `bun:"service_plan"`
	ModemMAC    string `bun:"modem_mac"`
	Status      string `bun:"status"`
	Outage      bool   `bun:"outage"`
}

// PostgresDirectory reads customer records from a Postgres customers table.
type PostgresDirectory struct {
	db *bun.DB
}

func NewPostgres(cfg PostgresConfig) (*PostgresDirectory, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresDirectory{db: db}, nil
}

func (d *PostgresDirectory) Lookup(ctx context.Context, accountID string) (*contractx.CustomerRecord, error) {
	id := strings.TrimSpace(accountID)
	if id == "" {
		return nil, fmt.Errorf("%w: account_id is empty", contractx.ErrAccountNotFound)
	}

	var row customerRow
	err := d.db.NewSelect().
		Model(&row).
		Where("account_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account_id=%s", contractx.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}

	return &contractx.CustomerRecord{
		AccountID:   row.AccountID,
		Name:        row.Name,
		Address:     row.Address,
		ServicePlan: row.ServicePlan,
		ModemMAC:    row.ModemMAC,
		Status:      row.Status,
		Outage:      row.Outage,
	}, nil
}

func (d *PostgresDirectory) Close() error {
	return d.db.Close()
}
