package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		FrontendBaseURL  string
		defaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string

		Server       ServerConfig
		Backend      BackendConfig
		Session      SessionConfig
		Payment      PaymentConfig
		Availability AvailabilityConfig
		Database     DatabaseConfig
	}

	ServerConfig struct {
		Addr            string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		StaticDir       string
		AutoTLS         bool
		CertCacheDir    string
	}

	BackendConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		TTL    time.Duration
		Secure bool
		Domain string
	}

	PaymentConfig struct {
		CustomerID      string // ePayco p_cust_id_cliente
		Key             string // ePayco p_key
		CheckoutURL     string
		ResponseURL     string
		ConfirmationURL string
		Test            bool
	}

	AvailabilityConfig struct {
		Concurrency int
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
		Path       string // sqlite file
	}
)

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// DefaultFromEmail parses the configured sender address, falling back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.defaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// NewConfig loads the configuration from the environment (and config/.env.<env> if present).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Parroquia")
	conf.SetDefault("build", "develop")
	conf.SetDefault("frontendBaseURL", "http://localhost:8000")
	conf.SetDefault("defaultFromEmail", "Parroquia <noreply@localhost>")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.debugHost", "localhost:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.staticDir", "")
	conf.SetDefault("server.autoTLS", false)
	conf.SetDefault("server.certCacheDir", ".cache/certs")

	conf.SetDefault("backend.baseURL", "http://localhost:3001/api")
	conf.SetDefault("backend.timeout", 15*time.Second)

	conf.SetDefault("session.ttl", 7*24*time.Hour)
	conf.SetDefault("session.secure", false)
	conf.SetDefault("session.domain", "")

	conf.SetDefault("payment.customerID", "")
	conf.SetDefault("payment.key", "")
	conf.SetDefault("payment.checkoutURL", "https://secure.payco.co/checkout.php")
	conf.SetDefault("payment.responseURL", "http://localhost:8000/payment/response")
	conf.SetDefault("payment.confirmationURL", "")
	conf.SetDefault("payment.test", true)

	conf.SetDefault("availability.concurrency", 8)

	conf.SetDefault("database.engine", "sqlite")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "parroquia")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.path", "parroquia.db")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:          conf.GetString("appName"),
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		WorkDir:          wd,
		FrontendBaseURL:  strings.TrimSuffix(conf.GetString("frontendBaseURL"), "/"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Addr:            conf.GetString("server.addr"),
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			StaticDir:       conf.GetString("server.staticDir"),
			AutoTLS:         conf.GetBool("server.autoTLS"),
			CertCacheDir:    conf.GetString("server.certCacheDir"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimSuffix(conf.GetString("backend.baseURL"), "/"),
			Timeout: conf.GetDuration("backend.timeout"),
		},
		Session: SessionConfig{
			TTL:    conf.GetDuration("session.ttl"),
			Secure: conf.GetBool("session.secure"),
			Domain: conf.GetString("session.domain"),
		},
		Payment: PaymentConfig{
			CustomerID:      conf.GetString("payment.customerID"),
			Key:             conf.GetString("payment.key"),
			CheckoutURL:     conf.GetString("payment.checkoutURL"),
			ResponseURL:     conf.GetString("payment.responseURL"),
			ConfirmationURL: conf.GetString("payment.confirmationURL"),
			Test:            conf.GetBool("payment.test"),
		},
		Availability: AvailabilityConfig{
			Concurrency: conf.GetInt("availability.concurrency"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetString("database.port"),
			Name:       conf.GetString("database.name"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			DisableTLS: conf.GetBool("database.disableTLS"),
			Path:       conf.GetString("database.path"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no env lookups, debug off.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "Parroquia",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		FrontendBaseURL:  "http://localhost:8000",
		defaultFromEmail: "Parroquia <noreply@localhost>",
		Server:           ServerConfig{Addr: ":0", ShutdownTimeout: time.Second},
		Backend:          BackendConfig{Timeout: 5 * time.Second},
		Session:          SessionConfig{TTL: 7 * 24 * time.Hour},
		Payment: PaymentConfig{
			CustomerID:  "12345",
			Key:         "test-p-key",
			CheckoutURL: "https://secure.payco.co/checkout.php",
			ResponseURL: "http://localhost:8000/payment/response",
			Test:        true,
		},
		Availability: AvailabilityConfig{Concurrency: 4},
		Database:     DatabaseConfig{Engine: "sqlite", Path: ":memory:"},
	}
}
