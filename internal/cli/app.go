package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"langsync/internal/adapters/db/sqldb"
	"langsync/internal/adapters/format/androidres"
	"langsync/internal/adapters/format/gettext"
	"langsync/internal/adapters/format/jsonflat"
	"langsync/internal/adapters/format/registry"
	"langsync/internal/adapters/notify"
	"langsync/internal/adapters/perm/rbac"
	"langsync/internal/adapters/vcs/localdir"
	"langsync/internal/config"
	"langsync/internal/lang"
	"langsync/internal/ports"
	"langsync/internal/usecase/admission"
	"langsync/internal/usecase/jobs"
	"langsync/internal/usecase/reconcile"
)

// app holds everything a command needs after wiring.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *sql.DB

	projects     *sqldb.ProjectRepo
	components   *sqldb.ComponentRepo
	translations *sqldb.TranslationRepo
	jobRepo      *sqldb.JobRepo

	catalog  *lang.Catalog
	resolver *lang.Resolver
	formats  *registry.Registry

	rec    *reconcile.Service
	adm    *admission.Service
	runner *jobs.Runner

	kafkaSink *notify.KafkaNotifier
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func loadLanguages(cfg *config.Config) (*lang.Data, error) {
	data, err := lang.Builtin()
	if cfg.Languages.File != "" {
		data, err = lang.LoadFile(cfg.Languages.File)
	}
	if err != nil {
		return nil, err
	}
	// Deployments patch individual alias spellings without shipping a
	// whole catalog file.
	for from, to := range config.GetEnvMap("LANGSYNC_LANGUAGE_ALIASES", nil) {
		data.Aliases[from] = to
	}
	return data, nil
}

// buildApp opens the database, seeds the language catalog and wires the
// services. The emitter may be nil for one-shot commands.
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, em ports.EventEmitter) (*app, error) {
	db, err := sqldb.Init(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	data, err := loadLanguages(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load languages: %w", err)
	}
	if err := sqldb.NewLanguageRepo(db).Seed(ctx, data.Languages); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed languages: %w", err)
	}

	tree, err := localdir.New(cfg.Repos.Root)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open checkout root: %w", err)
	}

	notifier, kafkaSink, err := buildNotifier(cfg.Notify, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	formats := registry.New()
	formats.Register(jsonflat.New())
	formats.Register(gettext.New())
	formats.Register(androidres.New())

	a := &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		projects:     sqldb.NewProjectRepo(db),
		components:   sqldb.NewComponentRepo(db),
		translations: sqldb.NewTranslationRepo(db),
		jobRepo:      sqldb.NewJobRepo(db),
		catalog:      lang.NewCatalog(data.Languages, data.Aliases, data.DefaultRegions),
		resolver:     lang.NewResolver(data.Tables()),
		formats:      formats,
		kafkaSink:    kafkaSink,
	}

	a.rec = reconcile.NewService(reconcile.Deps{
		Log:          log,
		Projects:     a.projects,
		Components:   a.components,
		Translations: a.translations,
		Catalog:      a.catalog,
		Resolver:     a.resolver,
		Formats:      a.formats,
		Tree:         tree,
		Notifier:     notifier,
		Emitter:      em,
	})
	a.adm = admission.NewService(admission.Deps{
		Log: log,
		Perms: rbac.New(rbac.Grants{
			DefaultAdd:  cfg.Auth.DefaultAdd,
			Admins:      cfg.Auth.Admins,
			Translators: cfg.Auth.Translators,
		}),
		Catalog:    a.catalog,
		Reconciler: a.rec,
		Notifier:   notifier,
		Emitter:    em,
	})
	a.runner = jobs.NewRunner(jobs.Deps{Jobs: a.jobRepo, Components: a.components}, a.rec)
	return a, nil
}

// buildNotifier returns the configured sink. Kafka deployments keep the
// log sink alongside for local visibility.
func buildNotifier(cfg config.NotifyConfig, log *logrus.Logger) (ports.Notifier, *notify.KafkaNotifier, error) {
	logSink := notify.NewLogNotifier(log)
	if cfg.Backend != "kafka" {
		return logSink, nil, nil
	}
	kafkaSink, err := notify.NewKafkaNotifier(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	return notify.NewFanout(log, logSink, kafkaSink), kafkaSink, nil
}

func (a *app) Close() {
	if a.kafkaSink != nil {
		a.kafkaSink.Close()
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("closing database")
	}
}
