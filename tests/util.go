// Package testutil builds in-memory environments and fixtures for the tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/lesson"
	"github.com/trezcool/tahsil/core/message"
	"github.com/trezcool/tahsil/core/plan"
	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/skill"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
	dummymail "github.com/trezcool/tahsil/services/email/dummy"
	logsvc "github.com/trezcool/tahsil/services/logger"
	dummydb "github.com/trezcool/tahsil/storage/database/dummy"
)

// Env wires every service over a fresh in-memory database.
type Env struct {
	Conf       *core.Config
	DB         *dummydb.DB
	Mail       *dummymail.Service
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Agg        *scoring.Aggregator

	UserRepo       user.Repository
	StudentRepo    student.Repository
	LessonRepo     lesson.Repository
	AssessmentRepo assessment.Repository
	SnapshotRepo   report.SnapshotRepository

	UserSvc       *user.Service
	StudentSvc    *student.Service
	LessonSvc     *lesson.Service
	AssessmentSvc *assessment.Service
	PlanSvc       *plan.Service
	MessageSvc    *message.Service
	ReportSvc     *report.Service
}

func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Tahsil",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		SecretKey:        "test-secret-key",
		DefaultFromEmail: "noreply@tahsil.test",
		FrontendBaseURL:  "http://localhost:3000",
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        time.Hour,
			ShutdownTimeout:           time.Second,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			PasswordResetTimeoutDelta: 24 * time.Hour,
		},
		Report: core.ReportConfig{
			Schedule:     "0 22 * * 5",
			SeriesWindow: 7,
			HistorySize:  10,
		},
		Skills: skill.DefaultDefinitions(),
	}
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := NewConfig()
	catalog, err := conf.Catalog()
	if err != nil {
		t.Fatalf("conf.Catalog() failed: %v", err)
	}

	env := &Env{
		Conf:   conf,
		DB:     dummydb.Open(),
		Logger: logsvc.NewNopLogger(),
		Agg:    scoring.NewAggregator(catalog),
	}
	env.Mail = dummymail.NewServiceMock(conf, env.Logger)
	env.Validate, env.Translator = core.NewValidator()
	user.InitValidators(env.Validate, env.Translator)
	plan.InitValidators(env.Validate, env.Translator)

	env.UserRepo = dummydb.NewUserRepository(env.DB)
	env.StudentRepo = dummydb.NewStudentRepository(env.DB)
	env.LessonRepo = dummydb.NewLessonRepository(env.DB)
	env.AssessmentRepo = dummydb.NewAssessmentRepository(env.DB)
	env.SnapshotRepo = dummydb.NewSnapshotRepository(env.DB)

	tokens := user.NewTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta)
	env.UserSvc = user.NewService(env.UserRepo, env.Mail, tokens)
	env.AssessmentSvc = assessment.NewService(env.AssessmentRepo, env.Agg)
	env.StudentSvc = student.NewService(env.StudentRepo, env.AssessmentSvc)
	env.LessonSvc = lesson.NewService(env.LessonRepo, env.AssessmentSvc)
	env.PlanSvc = plan.NewService(dummydb.NewPlanRepository(env.DB))
	env.MessageSvc = message.NewService(dummydb.NewMessageRepository(env.DB), env.StudentSvc, env.UserSvc, env.Mail)
	env.ReportSvc = report.NewService(
		env.Agg,
		env.SnapshotRepo,
		env.AssessmentSvc,
		env.StudentSvc,
		env.LessonSvc,
		env.UserSvc,
		env.Mail,
		env.Logger,
		report.Options{SeriesWindow: conf.Report.SeriesWindow, HistorySize: conf.Report.HistorySize},
	)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, teacherID, firstName, lastName string, parentIDs ...string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		TeacherID:  teacherID,
		FirstName:  firstName,
		LastName:   lastName,
		GradeLevel: "grade 3",
		GroupType:  "boys",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	for _, parentID := range parentIDs {
		if err := repo.LinkParent(context.Background(), std.ID, parentID); err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
	}
	return std
}

func CreateLesson(t *testing.T, repo lesson.Repository, teacherID, title string, date time.Time) lesson.Lesson {
	t.Helper()

	now := time.Now().UTC()
	lsn, err := repo.CreateLesson(context.Background(), lesson.Lesson{
		TeacherID:  teacherID,
		Title:      title,
		Date:       core.Date(date),
		StartTime:  "08:00",
		EndTime:    "09:00",
		GradeLevel: "grade 3",
		GroupType:  "boys",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

// CreateAssessment stores an assessment without validating its scores.
func CreateAssessment(
	t *testing.T,
	repo assessment.Repository,
	teacherID, studentID, lessonID string,
	date time.Time,
	scores scoring.Scores,
	notes ...string,
) assessment.Assessment {
	t.Helper()

	var teacherNotes string
	if len(notes) > 0 {
		teacherNotes = notes[0]
	}
	now := time.Now().UTC()
	asm, err := repo.UpsertAssessment(context.Background(), assessment.Assessment{
		TeacherID: teacherID,
		Record: scoring.Record{
			StudentID:    studentID,
			LessonID:     null.NewString(lessonID, lessonID != ""),
			Date:         core.Date(date),
			Scores:       scores,
			TeacherNotes: teacherNotes,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return asm
}

// Scores builds scoring.Scores from key, score pairs; a negative score is stored as null.
func Scores(pairs map[string]int) scoring.Scores {
	scores := make(scoring.Scores, len(pairs))
	for key, score := range pairs {
		if score < 0 {
			scores[key] = null.Int{}
			continue
		}
		scores.Set(key, score)
	}
	return scores
}

// Date parses a YYYY-MM-DD date, failing the test on error.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return d
}
