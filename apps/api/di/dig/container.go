package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/schoolconnect/apps/api/echo"
	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/feedback"
	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/message"
	"github.com/trezcool/schoolconnect/core/school"
	"github.com/trezcool/schoolconnect/core/session"
	emailsvc "github.com/trezcool/schoolconnect/services/email"
	logsvc "github.com/trezcool/schoolconnect/services/logger"
	"github.com/trezcool/schoolconnect/storage/database"
	inmemdb "github.com/trezcool/schoolconnect/storage/database/inmem"
	sqlxrepos "github.com/trezcool/schoolconnect/storage/database/sqlx"
	"github.com/trezcool/schoolconnect/storage/kv"
	"github.com/trezcool/schoolconnect/storage/supabase"
)

// EngineMemory keeps every record in process memory; no database is opened.
const EngineMemory = "memory"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newDB returns nil when the memory engine is configured.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == EngineMemory {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(context.Background(), db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newMemDB(conf *core.Config) *inmemdb.DB {
	var hash []byte
	if conf.DemoPasswordHash != "" {
		hash = []byte(conf.DemoPasswordHash)
	}
	return inmemdb.OpenDemo(hash)
}

type repositories struct {
	dig.Out
	Leaves     leave.Repository
	Broadcasts broadcast.Repository
	Feedback   feedback.Repository
	Messages   message.Repository
	Directory  session.Directory
}

// newRepositories stores leaves, broadcasts and feedback in Postgres when a database is open.
// Accounts and conversations always come from the demo data.
func newRepositories(db *sqlx.DB, memDB *inmemdb.DB) repositories {
	repos := repositories{
		Messages:  inmemdb.NewMessageRepository(memDB),
		Directory: inmemdb.NewAccountDirectory(memDB),
	}
	if db == nil {
		repos.Leaves = inmemdb.NewLeaveRepository(memDB)
		repos.Broadcasts = inmemdb.NewBroadcastRepository(memDB)
		repos.Feedback = inmemdb.NewFeedbackRepository(memDB)
		return repos
	}
	repos.Leaves = sqlxrepos.NewLeaveRepository(db)
	repos.Broadcasts = sqlxrepos.NewBroadcastRepository(db)
	repos.Feedback = sqlxrepos.NewFeedbackRepository(db)
	return repos
}

func newSessionBackend(conf *core.Config) (kv.Backend, error) {
	switch conf.SessionBackend {
	case "", "memory":
		return kv.NewMemory(), nil
	case "redis":
		return kv.NewRedis(kv.NewRedisClient(conf), "schoolconnect:", conf.Server.JWTExpirationDelta), nil
	default:
		return nil, errors.Errorf("unknown session backend %q", conf.SessionBackend)
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newBroadcastService(conf *core.Config, repo broadcast.Repository, dispatcher broadcast.Dispatcher, logger core.Logger) *broadcast.Service {
	return broadcast.NewService(repo, dispatcher, logger, broadcast.WithDelays(conf.Delays.Broadcast, conf.Delays.ClassMessage))
}

func newFeedbackService(conf *core.Config, repo feedback.Repository) *feedback.Service {
	return feedback.NewService(repo, conf.Delays.Feedback)
}

type schoolRecords struct {
	dig.Out
	Realtime      *supabase.Realtime
	Service       *school.Service
	Subscriptions school.Subscriptions
}

// newSchoolRecords leaves every field nil when Supabase is not configured.
func newSchoolRecords(conf *core.Config, logger core.Logger) schoolRecords {
	client, err := supabase.NewClient(conf, nil)
	if err != nil {
		logger.Info(fmt.Sprintf("school records disabled: %v", err))
		return schoolRecords{}
	}
	rt := supabase.NewRealtime(conf, logger)
	return schoolRecords{
		Realtime:      rt,
		Service:       school.NewService(supabase.NewRepositories(client)),
		Subscriptions: supabase.NewSubscriptions(rt),
	}
}

type serverDepsParam struct {
	dig.In
	Sessions      kv.Backend
	Directory     session.Directory
	Leaves        *leave.Service
	Reports       echoapi.ReportMailer
	Broadcasts    *broadcast.Service
	Messages      *message.Service
	Feedback      *feedback.Service
	School        *school.Service
	Subscriptions school.Subscriptions
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newServerDeps(p serverDepsParam) *echoapi.ServerDeps {
	return &echoapi.ServerDeps{
		Sessions:      p.Sessions,
		Directory:     p.Directory,
		Leaves:        p.Leaves,
		Reports:       p.Reports,
		Broadcasts:    p.Broadcasts,
		Messages:      p.Messages,
		Feedback:      p.Feedback,
		School:        p.School,
		Subscriptions: p.Subscriptions,
		Validate:      p.Validate,
		Translator:    p.Translator,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newMemDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newSessionBackend))
	must(c.Provide(newEmailService))
	must(c.Provide(emailsvc.NewBroadcastDispatcher, dig.As(new(broadcast.Dispatcher))))
	must(c.Provide(leave.NewService))
	must(c.Provide(emailsvc.NewReportMailer, dig.As(new(echoapi.ReportMailer))))
	must(c.Provide(newBroadcastService))
	must(c.Provide(message.NewService))
	must(c.Provide(newFeedbackService))
	must(c.Provide(newSchoolRecords))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
