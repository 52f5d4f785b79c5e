package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/parroquia/portal/core/payment"
)

type paymentRow struct {
	Reference   string      `db:"reference"`
	Concept     null.String `db:"concept"`
	Description null.String `db:"description"`
	Amount      float64     `db:"amount"`
	Currency    null.String `db:"currency"`
	Email       null.String `db:"email"`
	Name        null.String `db:"name"`
	Status      string      `db:"status"`
	State       null.String `db:"state"`
	ApprovedAt  null.Time   `db:"approved_at"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func toRow(e payment.Entry) paymentRow {
	now := time.Now().UTC()
	row := paymentRow{
		Reference:   e.Reference,
		Concept:     null.NewString(e.Concept, e.Concept != ""),
		Description: null.NewString(e.Description, e.Description != ""),
		Amount:      e.Amount,
		Currency:    null.NewString(e.Currency, e.Currency != ""),
		Email:       null.NewString(e.Email, e.Email != ""),
		Name:        null.NewString(e.Name, e.Name != ""),
		Status:      e.Status,
		State:       null.NewString(e.State, e.State != ""),
		ApprovedAt:  null.NewTime(e.ApprovedAt.UTC(), !e.ApprovedAt.IsZero()),
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
	if e.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if row.Status == "" {
		row.Status = payment.StatusPending
	}
	return row
}

func (row paymentRow) entry() payment.Entry {
	return payment.Entry{
		Reference:   row.Reference,
		Concept:     row.Concept.String,
		Description: row.Description.String,
		Amount:      row.Amount,
		Currency:    row.Currency.String,
		Email:       row.Email.String,
		Name:        row.Name.String,
		Status:      row.Status,
		State:       row.State.String,
		ApprovedAt:  row.ApprovedAt.Time,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

const (
	paymentColumns = `reference, concept, description, amount, currency, email, name, status, state,
		approved_at, created_at, updated_at`

	upsertPayment = `INSERT INTO payment_ledger (` + paymentColumns + `)
		VALUES (:reference, :concept, :description, :amount, :currency, :email, :name, :status, :state,
			:approved_at, :created_at, :updated_at)
		ON CONFLICT (reference) DO UPDATE SET
			concept     = COALESCE(excluded.concept, payment_ledger.concept),
			description = COALESCE(excluded.description, payment_ledger.description),
			amount      = CASE WHEN excluded.amount <> 0 THEN excluded.amount ELSE payment_ledger.amount END,
			currency    = COALESCE(excluded.currency, payment_ledger.currency),
			email       = COALESCE(excluded.email, payment_ledger.email),
			name        = COALESCE(excluded.name, payment_ledger.name),
			status      = excluded.status,
			state       = COALESCE(excluded.state, payment_ledger.state),
			updated_at  = excluded.updated_at`
)

type ledger struct {
	db *sqlx.DB
}

var _ payment.Ledger = (*ledger)(nil) // interface compliance check

func NewLedger(db *sqlx.DB) payment.Ledger {
	return &ledger{db: db}
}

func (l *ledger) Record(ctx context.Context, e payment.Entry) error {
	if _, err := l.db.NamedExecContext(ctx, upsertPayment, toRow(e)); err != nil {
		return errors.Wrapf(err, "recording payment %s", e.Reference)
	}
	return nil
}

func (l *ledger) MarkApproved(ctx context.Context, ref string, at time.Time) (bool, error) {
	q := l.db.Rebind(`UPDATE payment_ledger SET approved_at = ? WHERE reference = ? AND approved_at IS NULL`)
	res, err := l.db.ExecContext(ctx, q, at.UTC(), ref)
	if err != nil {
		return false, errors.Wrapf(err, "approving payment %s", ref)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "approving payment")
	}
	if n > 0 {
		return true, nil
	}
	if _, err = l.Get(ctx, ref); err != nil {
		return false, err
	}
	return false, nil
}

func (l *ledger) Get(ctx context.Context, ref string) (payment.Entry, error) {
	var row paymentRow
	q := l.db.Rebind(`SELECT ` + paymentColumns + ` FROM payment_ledger WHERE reference = ?`)
	if err := l.db.GetContext(ctx, &row, q, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payment.Entry{}, payment.ErrNotFound
		}
		return payment.Entry{}, errors.Wrapf(err, "getting payment %s", ref)
	}
	return row.entry(), nil
}

func (l *ledger) List(ctx context.Context, filter payment.Filter) ([]payment.Entry, error) {
	var (
		where []string
		args  []interface{}
	)
	if !filter.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, filter.To.UTC())
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	q := `SELECT ` + paymentColumns + ` FROM payment_ledger`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at, reference`

	var rows []paymentRow
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "listing payments")
	}
	entries := make([]payment.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}
