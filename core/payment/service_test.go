package payment_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/services/email"
	"github.com/parroquia/portal/storage/database/inmem"
	"github.com/parroquia/portal/tests"
)

type fakeGateway struct {
	mu    sync.Mutex
	state string
}

func (g *fakeGateway) setState(s string) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/payments/intent":
		var req payment.IntentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Concept == "gratis" {
			testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{"invoice": "INV-0", "amount": 0})
			return
		}
		testutil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"invoice": "INV-9", "description": "Intención de misa", "amount": 20000,
			"currency": "COP", "email": "ana@parroquia.co", "name": "Ana",
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payments/status/"):
		if r.URL.Path != "/payments/status/INV-9" {
			testutil.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "transacción no encontrada"})
			return
		}
		g.mu.Lock()
		state := g.state
		g.mu.Unlock()
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{"x_response": state, "amount": 20000, "currency": "COP"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newService(t *testing.T, gw *fakeGateway) (*payment.Service, *emailsvc.ConsoleServiceMock) {
	api, _ := testutil.NewBackend(t, gw)
	conf := core.NewTestConfig()
	validate, _ := core.NewValidator()
	checkout, err := payment.NewCheckout(conf.Payment)
	require.NoError(t, err)
	logger := new(testutil.Logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	ledger := inmemdb.NewLedger(inmemdb.Open())
	return payment.NewService(api, validate, checkout, ledger, mailSvc, logger, conf.FrontendBaseURL), mailSvc
}

func TestService_Checkout(t *testing.T) {
	svc, _ := newService(t, new(fakeGateway))
	ctx := context.Background()
	auth := backend.BearerAuth("tok")

	form, err := svc.Checkout(ctx, auth, payment.IntentRequest{Concept: " misa ", ReferenceID: 12.0})
	require.NoError(t, err)
	assert.Equal(t, "INV-9", form.Invoice)
	assert.Equal(t, "20000", form.Value("p_amount"))
	assert.Equal(t, "misa", form.Value("p_extra1"))
	assert.Equal(t, "12", form.Value("p_extra2"))

	e, err := svc.Ledger().Get(ctx, "INV-9")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, e.Status)
	assert.Equal(t, "misa", e.Concept)

	_, err = svc.Checkout(ctx, auth, payment.IntentRequest{})
	assert.Error(t, err)

	_, err = svc.Checkout(ctx, auth, payment.IntentRequest{Concept: "gratis"})
	var bErr *core.BackendError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, http.StatusBadGateway, bErr.Status)
}

func TestService_Checkout_notConfigured(t *testing.T) {
	var calls int
	api, _ := testutil.NewBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	conf := core.NewTestConfig()
	validate, _ := core.NewValidator()
	logger := new(testutil.Logger)
	ledger := inmemdb.NewLedger(inmemdb.Open())
	svc := payment.NewService(api, validate, nil, ledger, emailsvc.NewConsoleServiceMock(conf, logger), logger, conf.FrontendBaseURL)

	_, err := svc.Checkout(context.Background(), backend.BearerAuth("tok"), payment.IntentRequest{Concept: "misa"})
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
	assert.Zero(t, calls, "no invoice is opened")

	entries, err := svc.Ledger().List(context.Background(), payment.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Status(t *testing.T) {
	gw := &fakeGateway{state: "Pendiente"}
	svc, mailSvc := newService(t, gw)
	ctx := context.Background()
	auth := backend.BearerAuth("tok")

	_, err := svc.Checkout(ctx, auth, payment.IntentRequest{Concept: "misa"})
	require.NoError(t, err)

	res, err := svc.Status(ctx, auth, "INV-9")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, res.Status)
	assert.False(t, res.Final)
	assert.Empty(t, mailSvc.Sent())

	gw.setState("Aceptada")
	for i := 0; i < 3; i++ {
		res, err = svc.Status(ctx, auth, "INV-9")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusApproved, res.Status)
		assert.True(t, res.Final)
	}

	sent := mailSvc.Sent()
	require.Len(t, sent, 1, "the receipt is sent once")
	assert.Equal(t, "ana@parroquia.co", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "INV-9")
	assert.Contains(t, sent[0].TextContent, time.Now().UTC().Format(core.DateLayout))

	require.Len(t, sent[0].Attachments, 1)
	at := sent[0].Attachments[0]
	assert.Equal(t, payment.ReceiptFilename("INV-9"), at.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", at.ContentType)
	receipt, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.Contains(t, string(receipt), "Referencia: INV-9")
	assert.Contains(t, string(receipt), "Valor: 20000 COP")

	t.Run("unknown reference", func(t *testing.T) {
		_, err := svc.Status(ctx, auth, "INV-404")
		var bErr *core.BackendError
		require.ErrorAs(t, err, &bErr)
		assert.Equal(t, http.StatusNotFound, bErr.Status)
		assert.Equal(t, "transacción no encontrada", bErr.Message)
	})

	t.Run("invalid reference", func(t *testing.T) {
		_, err := svc.Status(ctx, auth, "../etc")
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}
