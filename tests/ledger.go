package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parroquia/portal/core/payment"
)

// TestLedger runs the behaviour every payment.Ledger implementation shares.
func TestLedger(t *testing.T, ledger payment.Ledger) {
	t.Helper()
	ctx := context.Background()
	oct := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	nov := time.Date(2026, 11, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, payment.Entry{
		Reference: "INV-1", Concept: "partida", Description: "Partida de bautismo", Amount: 15000,
		Currency: "cop", Email: "ana@parroquia.co", Status: payment.StatusPending, CreatedAt: oct, UpdatedAt: oct,
	}))
	require.NoError(t, ledger.Record(ctx, payment.Entry{
		Reference: "INV-2", Concept: "misa", Amount: 20000, Status: payment.StatusPending, CreatedAt: nov, UpdatedAt: nov,
	}))

	_, err := ledger.Get(ctx, "INV-404")
	assert.Equal(t, payment.ErrNotFound, err)

	// a status update keeps what it does not carry
	later := oct.Add(time.Hour)
	require.NoError(t, ledger.Record(ctx, payment.Entry{
		Reference: "INV-1", Status: payment.StatusApproved, State: "Aceptada", CreatedAt: later, UpdatedAt: later,
	}))
	e, err := ledger.Get(ctx, "INV-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusApproved, e.Status)
	assert.Equal(t, "Aceptada", e.State)
	assert.Equal(t, "Partida de bautismo", e.Description)
	assert.Equal(t, "ana@parroquia.co", e.Email)
	assert.EqualValues(t, 15000, e.Amount)
	assert.True(t, e.CreatedAt.Equal(oct), "created at is kept")
	assert.True(t, e.UpdatedAt.Equal(later))
	assert.True(t, e.ApprovedAt.IsZero())

	first, err := ledger.MarkApproved(ctx, "INV-1", later)
	require.NoError(t, err)
	assert.True(t, first)
	first, err = ledger.MarkApproved(ctx, "INV-1", later.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, first)
	_, err = ledger.MarkApproved(ctx, "INV-404", later)
	assert.Equal(t, payment.ErrNotFound, err)

	e, err = ledger.Get(ctx, "INV-1")
	require.NoError(t, err)
	assert.True(t, e.ApprovedAt.Equal(later))

	all, err := ledger.List(ctx, payment.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-1", all[0].Reference)
	assert.Equal(t, "INV-2", all[1].Reference)

	october, err := ledger.List(ctx, payment.Filter{From: oct, To: nov.AddDate(0, 0, -2)})
	require.NoError(t, err)
	require.Len(t, october, 1)
	assert.Equal(t, "INV-1", october[0].Reference)

	pending, err := ledger.List(ctx, payment.Filter{Status: payment.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "INV-2", pending[0].Reference)
}
