package sacrament

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
)

func fixedNow(t *testing.T) {
	core.NowFunc = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

func baptismJSON(mods ...func(map[string]interface{})) []byte {
	form := map[string]interface{}{
		"nombre":          "Lucía",
		"apellido":        "Ramírez",
		"fechaNacimiento": "2026-01-10",
		"lugarNacimiento": "Bogotá",
		"fechaBautismo":   "2026-03-01",
		"madre":           "María Ramírez",
		"madrina":         "Rosa Díaz",
		"ministro":        "P. Jorge",
		"libro":           "12",
		"folio":           "34",
		"numero":          "56",
	}
	for _, m := range mods {
		m(form)
	}
	data, _ := json.Marshal(form)
	return data
}

func TestBaptism_Validate(t *testing.T) {
	fixedNow(t)
	svc := NewService(nil, mustValidator())

	tests := []struct {
		name      string
		mod       func(map[string]interface{})
		wantField string
	}{
		{name: "valid"},
		{name: "missing name", mod: func(f map[string]interface{}) { delete(f, "nombre") }, wantField: "nombre"},
		{name: "bad date", mod: func(f map[string]interface{}) { f["fechaBautismo"] = "01/03/2026" }, wantField: "fechaBautismo"},
		{name: "future date", mod: func(f map[string]interface{}) { f["fechaBautismo"] = "2026-12-24" }, wantField: "fechaBautismo"},
		{name: "before birth", mod: func(f map[string]interface{}) { f["fechaBautismo"] = "2025-12-31" }, wantField: "fechaBautismo"},
		{name: "no godparent", mod: func(f map[string]interface{}) { delete(f, "madrina") }, wantField: "padrino"},
		{name: "document without type", mod: func(f map[string]interface{}) { f["documento"] = "123456" }, wantField: "tipoDocumento"},
		{name: "bad document type", mod: func(f map[string]interface{}) { f["tipoDocumento"] = "XX" }, wantField: "tipoDocumento"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.mod != nil {
				raw = baptismJSON(tt.mod)
			} else {
				raw = baptismJSON()
			}
			_, err := svc.Decode(KindBaptism, raw)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, fieldsOf(err), tt.wantField)
		})
	}
}

func TestMarriage_Validate(t *testing.T) {
	fixedNow(t)
	svc := NewService(nil, mustValidator())

	person := func(doc string) map[string]interface{} {
		return map[string]interface{}{
			"nombre": "X", "apellido": "Y", "fechaNacimiento": "1990-05-05",
			"tipoDocumento": "CC", "documento": doc,
		}
	}
	form := map[string]interface{}{
		"esposo": person("111111"), "esposa": person("222222"),
		"fechaMatrimonio": "2020-06-06", "testigo1": "A", "testigo2": "B", "ministro": "P. Jorge",
		"libro": "1", "folio": "2", "numero": "3",
	}
	raw, _ := json.Marshal(form)
	_, err := svc.Decode(KindMarriage, raw)
	assert.NoError(t, err)

	form["esposa"] = person("111111")
	raw, _ = json.Marshal(form)
	_, err = svc.Decode(KindMarriage, raw)
	assert.Contains(t, fieldsOf(err), "esposa")
}

func TestDeath_Validate(t *testing.T) {
	fixedNow(t)
	svc := NewService(nil, mustValidator())

	form := map[string]interface{}{
		"nombre": "José", "apellido": "Pérez", "fechaNacimiento": "1940-02-02",
		"fechaDefuncion": "2026-10-01", "lugarSepultura": "Cementerio Central", "ministro": "P. Jorge",
		"libro": "9", "folio": "8", "numero": "7",
	}
	raw, _ := json.Marshal(form)
	_, err := svc.Decode(KindDeath, raw)
	assert.NoError(t, err)

	_, err = svc.Decode(KindDeath, []byte(`{"nombre":`))
	assert.Error(t, err)

	_, err = svc.Decode(Kind("funerals"), raw)
	assert.Equal(t, ErrUnknownKind, err)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"baptisms":     KindBaptism,
		"Bautizos":     KindBaptism,
		"confirmacion": KindConfirmation,
		"MATRIMONIOS":  KindMarriage,
		"defunciones":  KindDeath,
	}
	for in, want := range tests {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("funerales")
	assert.False(t, ok)
}

func TestService_Create(t *testing.T) {
	fixedNow(t)

	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	svc := NewService(backend.NewClient(srv.URL, time.Second), mustValidator())
	out, err := svc.Create(context.Background(), backend.BearerAuth("tok"), KindBaptism, baptismJSON(func(f map[string]interface{}) {
		f["nombre"] = "  Lucía  "
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, out.Status)
	assert.JSONEq(t, `{"id":7}`, string(out.Body))
	assert.Equal(t, "/baptisms", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Lucía", gotBody["nombre"], "forms are cleaned before forwarding")

	_, err = svc.Create(context.Background(), backend.BearerAuth("tok"), KindBaptism, []byte(`{}`))
	assert.Error(t, err)
}

func mustValidator() *validator.Validate {
	validate, _ := core.NewValidator()
	return validate
}

// fieldsOf lists the fields named by a validation failure.
func fieldsOf(err error) []string {
	var fields []string
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		for _, fe := range vErr.Fields {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}
