package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/schoolsite/apps/web/echo"
	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/account"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
	"github.com/trezcool/schoolsite/fs"
	emailsvc "github.com/trezcool/schoolsite/services/email"
	logsvc "github.com/trezcool/schoolsite/services/logger"
	"github.com/trezcool/schoolsite/storage/database"
	"github.com/trezcool/schoolsite/storage/database/inmem"
	"github.com/trezcool/schoolsite/storage/supabase"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Closer releases the storage backend.
type Closer func() error

// Backend is what the configured storage provides.
type Backend struct {
	dig.Out

	Gateways    school.Gateways
	Departments school.DepartmentLister
	Auth        account.Authenticator
	Close       Closer
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(os.Stdout, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(os.Stderr, conf)
}

func newBackend(conf *core.Config, loggerParam DBLoggerParam) (Backend, error) {
	logger := loggerParam.Logger
	nop := func() error { return nil }

	switch conf.Gateway.Backend {
	case core.BackendSupabase:
		if conf.Supabase.URL == "" || conf.Supabase.AnonKey == "" {
			return Backend{}, errors.New("supabase url and anon key are required")
		}
		client := supabase.NewClient(conf.Supabase)
		return Backend{
			Gateways:    supabase.NewGateways(client),
			Departments: client,
			Auth:        supabase.NewAuthService(client),
			Close:       nop,
		}, nil

	case core.BackendPostgres, core.BackendSQLite:
		conf.Database.Engine = conf.Gateway.Backend
		db, err := database.Open(conf)
		if err != nil {
			return Backend{}, errors.Wrap(err, "opening database")
		}
		ctx := context.Background()
		if err = database.Migrate(ctx, db); err != nil {
			return Backend{}, errors.Wrap(err, "migrating database")
		}
		deps := database.NewDepartmentRepository(db)
		if err = deps.Seed(ctx, school.SampleDepartments()...); err != nil {
			return Backend{}, err
		}
		logger.Info(fmt.Sprintf("database ready : %s", conf.Database.Engine))
		return Backend{
			Gateways:    database.NewGateways(db),
			Departments: deps,
			Auth:        account.NewStaticAuthenticator(conf),
			Close:       db.Close,
		}, nil

	case core.BackendMemory:
		db := inmemdb.Open()
		inmemdb.Seed(db)
		return Backend{
			Gateways:    inmemdb.NewGateways(db),
			Departments: db,
			Auth:        account.NewStaticAuthenticator(conf),
			Close:       nop,
		}, nil
	}
	return Backend{}, errors.Errorf("unknown gateway backend %q", conf.Gateway.Backend)
}

func newEntities(conf *core.Config, gws school.Gateways) (map[string]crud.Entity, error) {
	policy, err := school.ParseEmailPolicy(conf.Students.EmailOnEmpty)
	if err != nil {
		return nil, errors.Wrap(err, "students.emailOnEmpty")
	}
	return school.Entities(gws, school.Options{ItemsPerPage: conf.Gateway.ItemsPerPage, EmailOnEmpty: policy}), nil
}

func newSessions(conf *core.Config, entities map[string]crud.Entity, v *crud.Validator, logger core.Logger) *echoweb.Sessions {
	return echoweb.NewSessions(entities, v, logger, conf.Server.SessionTTL)
}

func newMailTemplates(conf *core.Config) (*core.MailTemplates, error) {
	return core.NewMailTemplates(appfs.FS, "templates/email", conf.FrontendBaseURL, conf.Debug || conf.TestMode)
}

func newEmailService(conf *core.Config, templates *core.MailTemplates, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, templates, logger)
	}
	return emailsvc.NewSendgridService(conf, templates, logger)
}

func newRenderer() (*echoweb.Renderer, error) {
	return echoweb.NewRenderer(appfs.FS, "templates/web")
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(core.NewValidator))
	must(c.Provide(crud.NewValidator))
	must(c.Provide(newBackend))
	must(c.Provide(newEntities))
	must(c.Provide(newSessions))
	must(c.Provide(newMailTemplates))
	must(c.Provide(newEmailService))
	must(c.Provide(newRenderer))
	must(c.Provide(echoweb.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
