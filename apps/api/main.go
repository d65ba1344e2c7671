package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/tahsil/apps/api/echo"
	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/lesson"
	"github.com/trezcool/tahsil/core/message"
	"github.com/trezcool/tahsil/core/plan"
	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
	dummymail "github.com/trezcool/tahsil/services/email/dummy"
	sendgridmail "github.com/trezcool/tahsil/services/email/sendgrid"
	logsvc "github.com/trezcool/tahsil/services/logger"
	"github.com/trezcool/tahsil/storage/database"
	sqlxrepos "github.com/trezcool/tahsil/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up logger
	var logger core.Logger = logsvc.NewZapLogger(conf)
	if conf.RollbarToken != "" {
		rbLogger := logsvc.NewRollbarLogger(logger, conf)
		rbLogger.Enable(!conf.Debug)
		logger = rbLogger
	}
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	catalog, err := conf.Catalog()
	if err != nil {
		logger.Fatal("building skill catalog", err)
	}
	agg := scoring.NewAggregator(catalog)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = dummymail.NewService(conf, logger)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, user.NewTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta))
	asmSvc := assessment.NewService(sqlxrepos.NewAssessmentRepository(db), agg)
	stdSvc := student.NewService(sqlxrepos.NewStudentRepository(db), asmSvc)
	lsnSvc := lesson.NewService(sqlxrepos.NewLessonRepository(db), asmSvc)
	planSvc := plan.NewService(sqlxrepos.NewPlanRepository(db))
	msgSvc := message.NewService(sqlxrepos.NewMessageRepository(db), stdSvc, usrSvc, mailSvc)
	reportSvc := report.NewService(
		agg,
		sqlxrepos.NewSnapshotRepository(db),
		asmSvc,
		stdSvc,
		lsnSvc,
		usrSvc,
		mailSvc,
		logger,
		report.Options{SeriesWindow: conf.Report.SeriesWindow, HistorySize: conf.Report.HistorySize},
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	plan.InitValidators(validate, translator)

	user.LoadCommonPasswords(conf.PasswordsFile, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Weekly Snapshots

	scheduler, err := startScheduler(conf, logger, reportSvc)
	if err != nil {
		logger.Fatal(fmt.Sprintf("starting scheduler: %v", err), err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		StudentSvc:    stdSvc,
		LessonSvc:     lsnSvc,
		AssessmentSvc: asmSvc,
		ReportSvc:     reportSvc,
		PlanSvc:       planSvc,
		MessageSvc:    msgSvc,
	})

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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
