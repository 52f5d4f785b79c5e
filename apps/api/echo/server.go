package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/acme/autocert"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/certificate"
	"github.com/parroquia/portal/core/mass"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/sacrament"
	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		API            *backend.Client
		Rules          *session.AccessRules
		UserSvc        *user.Service
		SacramentSvc   *sacrament.Service
		MassSvc        *mass.Service
		AvailSvc       *mass.AvailabilityService
		CertificateSvc *certificate.Service
		PaymentSvc     *payment.Service
		ReportSvc      *report.Service
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if s.deps.Rules == nil {
		s.deps.Rules = session.DefaultAccessRules()
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Renderer = mustRenderer()

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(accessMiddleware(s.deps.Rules))
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.StaticDir != "" {
		s.app.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:    conf.Server.StaticDir,
			Skipper: func(ctx echo.Context) bool { return isAPIPath(ctx.Request().URL.Path) },
		}))
	}

	cookies := session.CookieOptions{TTL: conf.Session.TTL, Secure: conf.Session.Secure, Domain: conf.Session.Domain}
	proxy := &proxyApi{api: s.deps.API}

	registerPages(s.app, s.deps.UserSvc, cookies, s.deps.Logger)

	g := s.app.Group("/api")
	registerAuthAPI(g, proxy, s.deps.UserSvc, s.deps.Validate, cookies)
	registerSacramentAPI(g, proxy, s.deps.SacramentSvc)
	registerMassAPI(g, proxy, s.deps.MassSvc, s.deps.AvailSvc)
	registerCertificateAPI(g, proxy, s.deps.CertificateSvc)
	registerPaymentAPI(s.app, g, s.deps.PaymentSvc)
	registerReportAPI(g, s.deps.ReportSvc)

	// everything else goes to the parish API untouched
	g.Any("/*", proxy.passThrough)
}

func (s *server) Start() {
	conf := s.deps.Conf
	var err error
	if conf.Server.AutoTLS {
		s.app.AutoTLSManager.Cache = autocert.DirCache(conf.Server.CertCacheDir)
		s.app.AutoTLSManager.HostPolicy = autocert.HostWhitelist(conf.Server.Host)
		err = s.app.StartAutoTLS(conf.Server.Addr)
	} else {
		err = s.app.Start(conf.Server.Addr)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
