package payment

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
)

const defaultCurrency = "cop"

// Field is one hidden input of the checkout form.
type Field struct {
	Name  string
	Value string
}

// CheckoutForm is the auto-submitting form that hands the browser over to ePayco.
type CheckoutForm struct {
	Action  string
	Invoice string
	Fields  []Field
}

// Value returns the named field's value.
func (f *CheckoutForm) Value(name string) string {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld.Value
		}
	}
	return ""
}

// Checkout builds ePayco standard-checkout forms.
type Checkout struct {
	conf core.PaymentConfig
}

func NewCheckout(conf core.PaymentConfig) (*Checkout, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.CheckoutURL, "checkoutURL"),
		vala.StringNotEmpty(conf.CustomerID, "customerID"),
		vala.StringNotEmpty(conf.Key, "key"),
		vala.StringNotEmpty(conf.ResponseURL, "responseURL"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "payment config")
	}
	return &Checkout{conf: conf}, nil
}

// Signature is md5(p_cust_id_cliente^p_key^p_id_invoice^p_amount^p_currency_code).
func (c *Checkout) Signature(invoice, amount, currency string) string {
	sum := md5.Sum([]byte(strings.Join([]string{c.conf.CustomerID, c.conf.Key, invoice, amount, currency}, "^")))
	return hex.EncodeToString(sum[:])
}

// ResponseURL is where ePayco sends the browser back for invoice.
func (c *Checkout) ResponseURL(invoice string) string {
	sep := "?"
	if strings.Contains(c.conf.ResponseURL, "?") {
		sep = "&"
	}
	return c.conf.ResponseURL + sep + url.Values{"ref": {invoice}}.Encode()
}

// Form builds the checkout form of an intent.
func (c *Checkout) Form(in Intent, extras ...string) *CheckoutForm {
	currency := strings.ToLower(core.CleanString(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	amount := formatAmount(in.Amount)
	signature := in.Signature
	if signature == "" {
		signature = c.Signature(in.Invoice, amount, currency)
	}
	test := "FALSE"
	if c.conf.Test {
		test = "TRUE"
	}

	form := &CheckoutForm{
		Action:  c.conf.CheckoutURL,
		Invoice: in.Invoice,
		Fields: []Field{
			{"p_cust_id_cliente", c.conf.CustomerID},
			{"p_key", c.conf.Key},
			{"p_id_invoice", in.Invoice},
			{"p_description", in.Description},
			{"p_currency_code", currency},
			{"p_amount", amount},
			{"p_tax", formatAmount(in.Tax)},
			{"p_amount_base", formatAmount(in.TaxBase)},
			{"p_test_request", test},
			{"p_url_response", c.ResponseURL(in.Invoice)},
			{"p_signature", signature},
		},
	}
	if c.conf.ConfirmationURL != "" {
		form.Fields = append(form.Fields, Field{"p_url_confirmation", c.conf.ConfirmationURL})
	}
	if in.Email != "" {
		form.Fields = append(form.Fields, Field{"p_email", in.Email})
	}
	if in.Name != "" {
		form.Fields = append(form.Fields, Field{"p_billing_name", in.Name})
	}
	for i, extra := range extras {
		if extra == "" {
			continue
		}
		form.Fields = append(form.Fields, Field{"p_extra" + strconv.Itoa(i+1), extra})
	}
	return form
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
