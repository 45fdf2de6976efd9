package ledger

import (
	"database/sql"

	"github.com/muniwatch/debt-service/internal/models"
)

// PostgresMirror keeps a copy of the ledger in Postgres, one row per day,
// for configurations where a dashboard queries the database instead of the
// file. It is written after the file, never instead of it.
type PostgresMirror struct {
	db *sql.DB
}

// NewPostgresMirror initializes a mirror over an open connection.
func NewPostgresMirror(db *sql.DB) *PostgresMirror {
	return &PostgresMirror{db: db}
}

// EnsureTable creates the mirror table if it is missing.
func (m *PostgresMirror) EnsureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS impact_log (
			day              date PRIMARY KEY,
			bond_yield       double precision NOT NULL,
			total_rate       double precision NOT NULL,
			annual_payment   double precision,
			total_interest   double precision,
			household_impact double precision,
			grand_annual     double precision,
			grand_interest   double precision,
			source           text,
			updated_at       timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := m.db.Exec(query); err != nil {
		return &PersistenceError{Op: "ensure mirror table", Err: err}
	}
	return nil
}

// Upsert records rec for its day, superseding any earlier same-day row.
func (m *PostgresMirror) Upsert(rec models.ImpactRecord) error {
	query := `
		INSERT INTO impact_log (day, bond_yield, total_rate, annual_payment, total_interest,
			household_impact, grand_annual, grand_interest, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP)
		ON CONFLICT (day) DO UPDATE SET
			bond_yield = EXCLUDED.bond_yield,
			total_rate = EXCLUDED.total_rate,
			annual_payment = EXCLUDED.annual_payment,
			total_interest = EXCLUDED.total_interest,
			household_impact = EXCLUDED.household_impact,
			grand_annual = EXCLUDED.grand_annual,
			grand_interest = EXCLUDED.grand_interest,
			source = EXCLUDED.source,
			updated_at = CURRENT_TIMESTAMP`
	_, err := m.db.Exec(query,
		rec.Date, rec.BondYield, rec.TotalRate, rec.AnnualPayment, rec.TotalInterest,
		rec.HouseholdImpact, rec.GrandAnnual, rec.GrandInterest, rec.Source)
	if err != nil {
		return &PersistenceError{Op: "mirror upsert", Err: err}
	}
	return nil
}
