package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/parroquia/portal/apps/api/echo"
	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/certificate"
	"github.com/parroquia/portal/core/mass"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/sacrament"
	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
	"github.com/parroquia/portal/services/email"
	"github.com/parroquia/portal/storage/database/inmem"
	"github.com/parroquia/portal/tests"
)

var (
	app     Server
	deps    ServerDeps
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *testutil.Logger

	errUnauthenticated = httpErr{Error: "no autenticado"}
	errForbidden       = httpErr{Error: "permiso denegado"}
)

func TestMain(m *testing.M) {
	api := httptest.NewServer(fakeAPI())

	conf := core.NewTestConfig()
	logger = new(testutil.Logger)
	validate, translator := core.NewValidator()
	mass.InitValidators(validate, translator)
	client := backend.NewClient(api.URL, 5*time.Second)

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	checkout, err := payment.NewCheckout(conf.Payment)
	if err != nil {
		fmt.Printf("payment.NewCheckout(): %v", err)
		os.Exit(1)
	}
	ledger := inmemdb.NewLedger(inmemdb.Open())

	// set up server
	deps = ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		API:            client,
		UserSvc:        user.NewService(client),
		SacramentSvc:   sacrament.NewService(client, validate),
		MassSvc:        mass.NewService(client, validate, time.Now),
		AvailSvc:       mass.NewAvailabilityService(client, logger, conf.Availability.Concurrency),
		CertificateSvc: certificate.NewService(client, validate, mailSvc, conf.FrontendBaseURL),
		PaymentSvc:     payment.NewService(client, validate, checkout, ledger, mailSvc, logger, conf.FrontendBaseURL),
		ReportSvc:      report.NewService(client),
		DisableReqLogs: true,
	}
	app = NewServer(deps)

	// run tests
	code := m.Run()

	// clean up
	api.Close()
	if err = app.Close(); err != nil {
		fmt.Printf("app.Close(): %v", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// fakeAPI plays the parish REST API.
func fakeAPI() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds user.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secreto123" {
			testutil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "credenciales inválidas"})
			return
		}
		token, _ := testutil.SignToken(session.RoleSecretaria)
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"token": token,
			"rol":   "Secretaría",
			"user":  map[string]interface{}{"id": 7, "nombre": "Ana", "apellido": "Gómez", "email": creds.Email},
		})
	})

	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			testutil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "token inválido"})
			return
		}
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": 7, "nombre": "Ana", "apellido": "Gómez", "rol": "secretaria"})
	})

	// echoes what the gateway sent
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Backend", "parroquia")
		testutil.WriteJSON(w, http.StatusOK, map[string]string{
			"method":        r.Method,
			"query":         r.URL.RawQuery,
			"authorization": r.Header.Get("Authorization"),
			"cookie":        r.Header.Get("Cookie"),
			"body":          string(body),
		})
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "no existe"})
	})
	mux.HandleFunc("/baptisms/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/baptisms", func(w http.ResponseWriter, r *http.Request) {
		var doc map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&doc)
		doc["id"] = 1
		testutil.WriteJSON(w, http.StatusCreated, doc)
	})
	mux.HandleFunc("/mass-requests", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]string{"cookie": r.Header.Get("Cookie")})
	})

	mux.HandleFunc("/payments/intent", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"invoice":     "INV-100",
			"description": "Misa de acción de gracias",
			"amount":      50000,
			"currency":    "COP",
			"email":       "ana@parroquia.co",
			"name":        "Ana Gómez",
		})
	})
	mux.HandleFunc("/payments/status/", func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimPrefix(r.URL.Path, "/payments/status/")
		if ref != "INV-100" {
			testutil.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "pago no encontrado"})
			return
		}
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{"estado": "Aceptada", "amount": 50000, "currency": "COP"})
	})
	mux.HandleFunc("/payments", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": []map[string]interface{}{
			{"referencia": "A1", "concepto": "misa", "monto": 20000, "estado": "Aceptada", "fecha": "2026-09-02"},
			{"referencia": "A2", "concepto": "partida", "monto": 15000, "estado": "Rechazada", "fecha": "2026-09-10"},
		}})
	})

	return mux
}

// expiredToken is a session the API no longer accepts.
const expiredToken = "expired"

func authenticated(r *http.Request) bool {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return auth != "Bearer "+expiredToken
	}
	c, err := r.Cookie("jwt")
	return err == nil && c.Value != ""
}
