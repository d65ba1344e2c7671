package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/lesson"
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
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger := logsvc.NewZapLogger(conf)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	catalog, err := conf.Catalog()
	if err != nil {
		logger.Fatal("building skill catalog", err)
	}
	agg := scoring.NewAggregator(catalog)

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

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		snapshots: report.NewService(
			agg,
			sqlxrepos.NewSnapshotRepository(db),
			asmSvc,
			stdSvc,
			lsnSvc,
			usrSvc,
			mailSvc,
			logger,
			report.Options{SeriesWindow: conf.Report.SeriesWindow, HistorySize: conf.Report.HistorySize},
		),
		logger: logger,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
