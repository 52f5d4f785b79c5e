package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/parroquia/portal/core/payment"
)

type ledger struct {
	db *paymentTable
}

var _ payment.Ledger = (*ledger)(nil) // interface compliance check

func NewLedger(db *DB) payment.Ledger {
	return &ledger{db: db.payment}
}

func (l *ledger) Record(_ context.Context, e payment.Entry) error {
	l.db.mutex.Lock()
	defer l.db.mutex.Unlock()

	if orig, ok := l.db.table[e.Reference]; ok {
		merged := orig.Merge(e)
		l.db.table[e.Reference] = &merged
		return nil
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	l.db.table[e.Reference] = &e
	return nil
}

func (l *ledger) MarkApproved(_ context.Context, ref string, at time.Time) (bool, error) {
	l.db.mutex.Lock()
	defer l.db.mutex.Unlock()

	e, ok := l.db.table[ref]
	if !ok {
		return false, payment.ErrNotFound
	}
	if !e.ApprovedAt.IsZero() {
		return false, nil
	}
	e.ApprovedAt = at
	return true, nil
}

func (l *ledger) Get(_ context.Context, ref string) (payment.Entry, error) {
	l.db.mutex.RLock()
	defer l.db.mutex.RUnlock()

	if e, ok := l.db.table[ref]; ok {
		return *e, nil
	}
	return payment.Entry{}, payment.ErrNotFound
}

func (l *ledger) List(_ context.Context, filter payment.Filter) ([]payment.Entry, error) {
	l.db.mutex.RLock()
	defer l.db.mutex.RUnlock()

	entries := make([]payment.Entry, 0, len(l.db.table))
	for _, e := range l.db.table {
		if !filter.From.IsZero() && e.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Reference < entries[j].Reference
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}
