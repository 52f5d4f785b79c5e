package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parroquia/portal/core"
)

func TestNewCheckout(t *testing.T) {
	conf := core.NewTestConfig().Payment
	_, err := NewCheckout(conf)
	require.NoError(t, err)

	conf.Key = ""
	_, err = NewCheckout(conf)
	assert.Error(t, err)
}

func TestCheckout_Form(t *testing.T) {
	conf := core.NewTestConfig().Payment
	conf.ConfirmationURL = "https://api.parroquia.co/payments/confirmation"
	c, err := NewCheckout(conf)
	require.NoError(t, err)

	form := c.Form(Intent{
		Invoice:     "INV-77",
		Description: "Partida de matrimonio",
		Amount:      15000,
		TaxBase:     15000,
		Email:       "ana@parroquia.co",
	}, "partida", "", "42")

	assert.Equal(t, conf.CheckoutURL, form.Action)
	assert.Equal(t, "INV-77", form.Invoice)
	assert.Equal(t, "12345", form.Value("p_cust_id_cliente"))
	assert.Equal(t, "15000", form.Value("p_amount"))
	assert.Equal(t, "0", form.Value("p_tax"))
	assert.Equal(t, "cop", form.Value("p_currency_code"))
	assert.Equal(t, "TRUE", form.Value("p_test_request"))
	assert.Equal(t, "http://localhost:8000/payment/response?ref=INV-77", form.Value("p_url_response"))
	assert.Equal(t, conf.ConfirmationURL, form.Value("p_url_confirmation"))
	assert.Equal(t, "ana@parroquia.co", form.Value("p_email"))
	assert.Equal(t, "partida", form.Value("p_extra1"))
	assert.Empty(t, form.Value("p_extra2"))
	assert.Equal(t, "42", form.Value("p_extra3"))
	assert.Equal(t, c.Signature("INV-77", "15000", "cop"), form.Value("p_signature"))
	assert.Len(t, form.Value("p_signature"), 32)

	t.Run("API signature wins", func(t *testing.T) {
		form := c.Form(Intent{Invoice: "INV-78", Description: "x", Amount: 1, Currency: "USD", Signature: "abc"})
		assert.Equal(t, "abc", form.Value("p_signature"))
		assert.Equal(t, "usd", form.Value("p_currency_code"))
	})
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]string{
		"Aceptada":  StatusApproved,
		" APROBADA": StatusApproved,
		"1":         StatusApproved,
		"Rechazada": StatusRejected,
		"Pendiente": StatusPending,
		"Fallida":   StatusFailed,
		"4":         StatusFailed,
		"":          StatusPending,
		"retenida":  StatusPending,
	}
	for state, want := range tests {
		assert.Equal(t, want, NormalizeStatus(state), state)
	}
	_, ok := ParseStatus("retenida")
	assert.False(t, ok)
	st, ok := ParseStatus(" Aprobada ")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, st)

	assert.True(t, IsFinal(StatusRejected))
	assert.False(t, IsFinal(StatusPending))
}
