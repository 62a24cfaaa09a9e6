package logsvc

import (
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schoolconnect/core"
)

// personer is any value that can name the user a log entry is about (session.User is one).
type personer interface {
	Person() core.Person
}

// RollbarLogger reports to Rollbar and echoes every entry to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// splitPerson separates the first core.Person or personer in args from the other values
// (errors, map[string]interface{} extras) that are passed on to Rollbar.
func splitPerson(args []interface{}) (rest []interface{}, psn core.Person, found bool) {
	rest = make([]interface{}, 0, len(args))
	for _, arg := range args {
		var (
			p  core.Person
			ok bool
		)
		switch v := arg.(type) {
		case core.Person:
			p, ok = v, true
		case personer:
			p, ok = v.Person(), true
		}
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if !found {
			psn, found = p, true
		}
	}
	return rest, psn, found
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	rest, psn, found := splitPerson(args)
	if found {
		rollbar.SetPerson(psn.ID, psn.Name, psn.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s", strings.ToUpper(level), msg)
	for _, arg := range rest {
		l.std.Printf("\t%+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }

func (l RollbarLogger) Info(msg string, args ...interface{}) { l.log(rollbar.INFO, msg, args) }

func (l RollbarLogger) Warn(msg string, args ...interface{}) { l.log(rollbar.WARN, msg, args) }

func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
