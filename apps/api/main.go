package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Register the pprof handlers
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/parroquia/portal/apps/api/echo"
	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/certificate"
	"github.com/parroquia/portal/core/mass"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/sacrament"
	"github.com/parroquia/portal/core/user"
	emailsvc "github.com/parroquia/portal/services/email"
	logsvc "github.com/parroquia/portal/services/logger"
	"github.com/parroquia/portal/storage/database"
	inmemdb "github.com/parroquia/portal/storage/database/inmem"
	sqlxrepos "github.com/parroquia/portal/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up the payment ledger
	ledger, db, err := setUpLedger(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if db != nil {
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	mass.InitValidators(validate, translator)

	checkout := newCheckout(conf, logger)

	api := backend.NewClient(conf.Backend.BaseURL, conf.Backend.Timeout)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("backend").Set(conf.Backend.BaseURL)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			API:            api,
			UserSvc:        user.NewService(api),
			SacramentSvc:   sacrament.NewService(api, validate),
			MassSvc:        mass.NewService(api, validate, time.Now),
			AvailSvc:       mass.NewAvailabilityService(api, logger, conf.Availability.Concurrency),
			CertificateSvc: certificate.NewService(api, validate, mailSvc, conf.FrontendBaseURL),
			PaymentSvc:     payment.NewService(api, validate, checkout, ledger, mailSvc, logger, conf.FrontendBaseURL),
			ReportSvc:      report.NewService(api),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpLedger opens and migrates the ledger database; the "memory" engine keeps payments in process.
func setUpLedger(conf *core.Config) (payment.Ledger, *sqlx.DB, error) {
	if conf.Database.Engine == database.Memory {
		return inmemdb.NewLedger(inmemdb.Open()), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewLedger(db), db, nil
}

// newCheckout returns nil when the ePayco credentials are missing: the portal
// still starts and only the checkout answers 503.
func newCheckout(conf *core.Config, logger core.Logger) *payment.Checkout {
	checkout, err := payment.NewCheckout(conf.Payment)
	if err != nil {
		logger.Warn("online payments disabled", err)
		return nil
	}
	return checkout
}
