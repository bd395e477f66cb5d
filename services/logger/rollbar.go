package logsvc

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/session"
	"github.com/trezcool/alama/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry to stdout, prefixed with its component.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// ConfigureRollbar sets up the process-wide Rollbar client. Reporting stays off without a token and in tests.
func ConfigureRollbar(conf *core.Config) {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{"storage": conf.StorageEngine})
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode && !conf.Debug)
}

// EnableRollbar switches reporting on or off for every RollbarLogger.
func EnableRollbar(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func NewRollbarLogger(component string, out io.Writer, conf *core.Config) *RollbarLogger {
	return &RollbarLogger{
		std:   log.New(out, component+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		debug: conf.Debug,
	}
}

// expected args: error, map[string]interface{}, session.Session | user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) (items []interface{}, person string) {
	items = make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case session.Session:
			if v.LoggedIn && person == "" {
				rollbar.SetPerson(v.Email, v.Name, v.Email)
				person = v.Email
			}
		case user.User:
			if person == "" {
				rollbar.SetPerson(v.Email, v.Name, v.Email)
				person = v.Email
			}
		default:
			items = append(items, arg)
		}
	}
	if person == "" {
		rollbar.ClearPerson()
	}
	return items, person
}

// print writes one line per entry; errors get their stack on the following lines.
func (l *RollbarLogger) print(level, msg, person string, args []interface{}) {
	var line strings.Builder
	line.WriteString(level + " " + msg)
	if person != "" {
		line.WriteString(" user=" + person)
	}
	var stacks []string
	for _, arg := range args {
		switch v := arg.(type) {
		case session.Session, user.User:
		case error:
			line.WriteString(" err=" + fmt.Sprintf("%q", v.Error()))
			stacks = append(stacks, fmt.Sprintf("%+v", v))
		case map[string]interface{}:
			for k, val := range v {
				line.WriteString(fmt.Sprintf(" %s=%v", k, val))
			}
		default:
			line.WriteString(fmt.Sprintf(" %v", v))
		}
	}
	_ = l.std.Output(3, line.String())
	for _, s := range stacks {
		_ = l.std.Output(3, s)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	items, person := l.prepare(msg, args)
	rollbar.Debug(items...)
	l.print("DEBUG", msg, person, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	items, person := l.prepare(msg, args)
	rollbar.Info(items...)
	l.print("INFO", msg, person, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	items, person := l.prepare(msg, args)
	rollbar.Warning(items...)
	l.print("WARN", msg, person, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	items, person := l.prepare(msg, args)
	rollbar.Error(items...)
	l.print("ERROR", msg, person, args)
}

// Fatal reports, waits for Rollbar to flush, then exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	items, person := l.prepare(msg, args)
	rollbar.Critical(items...)
	rollbar.Wait()
	l.print("FATAL", msg, person, args)
	os.Exit(1)
}
