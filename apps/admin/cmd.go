package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/mass"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
	"github.com/parroquia/portal/storage/database"
	sqlxrepos "github.com/parroquia/portal/storage/database/sqlx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Run      // mockable

	errNoPassword = errors.New("a password is required")
)

type commandLine struct {
	conf      *core.Config
	usrSvc    *user.Service
	availSvc  *mass.AvailabilityService
	reportSvc *report.Service
	out       io.Writer
	nowFunc   func() time.Time
}

func newCommandLine(conf *core.Config, logger core.Logger) *commandLine {
	api := backend.NewClient(conf.Backend.BaseURL, conf.Backend.Timeout)
	return &commandLine{
		conf:      conf,
		usrSvc:    user.NewService(api),
		availSvc:  mass.NewAvailabilityService(api, logger, conf.Availability.Concurrency),
		reportSvc: report.NewService(api),
		out:       os.Stdout,
		nowFunc:   time.Now,
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Parish portal administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.AddCommand(cli.migrateCmd(), cli.loginCmd(), cli.availabilityCmd(), cli.reportCmd())
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func (cli *commandLine) openDB(ctx context.Context) (*sqlx.DB, error) {
	if cli.conf.Database.Engine == database.Memory {
		return nil, errors.New(`the "memory" engine keeps no database to open`)
	}
	return database.Open(ctx, cli.conf.Database)
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, version, redo...) on the ledger schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cli.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			return migrateFunc(db, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the parish API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cli.out, "Enter password:")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return errors.Wrap(err, "reading password")
			}
			if len(pwd) == 0 {
				return errNoPassword
			}

			sess, err := cli.usrSvc.Login(cmd.Context(), user.Credentials{
				Email:    core.CleanString(email, true /* lower */),
				Password: string(pwd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "role: %s\n", sess.Role)
			if claims, err := session.ReadClaims(sess.Token); err == nil && !claims.Expiry().IsZero() {
				fmt.Fprintf(cli.out, "expires: %s\n", claims.Expiry().UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the account's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) availabilityCmd() *cobra.Command {
	var month, token string
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List the days of a month with free mass slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, m, err := mass.ParseMonth(month)
			if err != nil {
				return err
			}
			days, err := cli.availSvc.Month(cmd.Context(), backend.BearerAuth(token), year, m, cli.nowFunc())
			if err != nil {
				return err
			}
			return cli.print(days)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "the month, as YYYY-MM")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PARROQUIA_TOKEN"), "session token for the parish API")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func (cli *commandLine) reportCmd() *cobra.Command {
	var from, to, token string
	var local bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the payments of a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !local {
				r, err := cli.reportSvc.Accounting(cmd.Context(), backend.BearerAuth(token), from, to)
				if err != nil {
					return err
				}
				return cli.print(r)
			}

			f, t, err := report.ParseRange(from, to)
			if err != nil {
				return err
			}
			db, err := cli.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := sqlxrepos.NewLedger(db).List(cmd.Context(), payment.Filter{From: f, To: t.AddDate(0, 0, 1)})
			if err != nil {
				return err
			}
			return cli.print(report.Aggregate(f.Format(core.DateLayout), t.Format(core.DateLayout), report.FromLedger(entries)))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, as YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day (inclusive), as YYYY-MM-DD")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PARROQUIA_TOKEN"), "session token for the parish API")
	cmd.Flags().BoolVar(&local, "local", false, "summarize the gateway's own payment ledger instead")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// print writes v as YAML.
func (cli *commandLine) print(v interface{}) error {
	enc := yaml.NewEncoder(cli.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "printing result")
	}
	return enc.Close()
}
