package logsvc

import (
	"fmt"
	"log"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/user"
)

// RollbarLogger reports to Rollbar (when enabled) and mirrors every entry to a std logger.
type RollbarLogger struct {
	std   *log.Logger
	debug bool

	// rollbar keeps the person globally
	mu sync.Mutex
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

// person extracts the acting user from args.
// expected fmt: msg | error, map[string]interface{}, user.User, *user.User
func person(args []interface{}) (*user.User, []interface{}) {
	var usr *user.User
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if usr == nil {
				usr = &v
			}
		case *user.User:
			if usr == nil && v != nil {
				usr = v
			}
		default:
			rest = append(rest, arg)
		}
	}
	return usr, rest
}

func (l *RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	usr, rest := person(args)

	l.mu.Lock()
	if usr != nil {
		id := usr.Email
		if usr.ID != nil {
			id = fmt.Sprint(usr.ID)
		}
		rollbar.SetPerson(id, usr.FullName(), usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	send(append([]interface{}{msg}, rest...)...)
	l.mu.Unlock()

	l.std.Println(msg)
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.report(rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
