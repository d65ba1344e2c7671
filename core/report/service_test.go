package report_test

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/skill"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

type fixtures struct {
	env      *testutil.Env
	teacher  user.User
	parent   user.User
	student  string
	lessonID string
}

// setup records, for one student, an assessment in the previous week and two in the
// school week of 2024-01-06 (Saturday) to 2024-01-12 (Friday).
func setup(t *testing.T) fixtures {
	env := testutil.NewEnv(t)
	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	silent := testutil.CreateUser(t, env.UserRepo, "Silent", "silent", "", "", []string{user.RoleParent}, true)

	std := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Ali", "Hassan", parent.ID, silent.ID)
	testutil.CreateStudent(t, env.StudentRepo, other.ID, "Omar", "Said")

	lsn := testutil.CreateLesson(t, env.LessonRepo, teacher.ID, "Surah Al-Fatiha", testutil.Date(t, "2024-01-06"))
	testutil.CreateLesson(t, env.LessonRepo, teacher.ID, "Next week", testutil.Date(t, "2024-01-14"))

	testutil.CreateAssessment(t, env.AssessmentRepo, teacher.ID, std.ID, "", testutil.Date(t, "2024-01-03"),
		testutil.Scores(map[string]int{skill.Homework: 5}))
	testutil.CreateAssessment(t, env.AssessmentRepo, teacher.ID, std.ID, lsn.ID, testutil.Date(t, "2024-01-06"),
		testutil.Scores(map[string]int{skill.Homework: 8, skill.Grammar: 4}), "good recitation")
	testutil.CreateAssessment(t, env.AssessmentRepo, teacher.ID, std.ID, "", testutil.Date(t, "2024-01-08"),
		testutil.Scores(map[string]int{skill.Homework: 10, skill.Grammar: -1, skill.Quiz: 35}))

	return fixtures{env: env, teacher: teacher, parent: parent, student: std.ID, lessonID: lsn.ID}
}

func TestService_WeeklyReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rep, err := f.env.ReportSvc.WeeklyReport(ctx, f.student, testutil.Date(t, "2024-01-10"))
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, 2, rep.RecordCount)
	assert.Equal(t, testutil.Date(t, "2024-01-06"), rep.From)
	assert.Equal(t, testutil.Date(t, "2024-01-08"), rep.To)
	// (9 + 4 + 35) / (10 + 5 + 35)
	assert.Equal(t, 50, rep.MaxPossible)
	assert.Equal(t, 96, rep.Percentage)
	assert.Equal(t, "good recitation", rep.TeacherNotes)

	var keys []string
	for _, s := range rep.Skills {
		keys = append(keys, s.Key)
	}
	assert.ElementsMatch(t, []string{skill.Homework, skill.Grammar, skill.Quiz}, keys)

	rep, err = f.env.ReportSvc.WeeklyReport(ctx, f.student, testutil.Date(t, "2024-02-01"))
	assert.NoError(t, err)
	assert.Nil(t, rep)
}

func TestService_StudentOverview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ov, err := f.env.ReportSvc.StudentOverview(ctx, f.student)
	require.NoError(t, err)

	// (5 + 12 + 45) / (10 + 15 + 45)
	assert.Equal(t, 89, ov.Performance)
	assert.Equal(t, report.LevelExcellent, ov.Level)
	assert.Equal(t, 3, ov.CompletedLessons)
	assert.Equal(t, 1, ov.TeacherNotesCount)
	// (+2 - 4 + 35) / 50
	assert.Equal(t, 66, ov.Progress)
	if assert.NotNil(t, ov.MostImprovedSkill) {
		assert.Equal(t, skill.Quiz, ov.MostImprovedSkill.Skill)
		assert.Equal(t, 35, ov.MostImprovedSkill.Improvement)
	}
	if assert.Len(t, ov.Series, 3) {
		assert.Equal(t, []int{50, 80, 100}, []int{ov.Series[0].Percentage, ov.Series[1].Percentage, ov.Series[2].Percentage})
	}
	if assert.NotNil(t, ov.RecentAssessmentAt) {
		assert.Equal(t, testutil.Date(t, "2024-01-08"), *ov.RecentAssessmentAt)
	}

	ov, err = f.env.ReportSvc.StudentOverview(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, ov.Performance)
	assert.Equal(t, report.LevelWeak, ov.Level)
	assert.Empty(t, ov.Series)
	assert.Nil(t, ov.MostImprovedSkill)
}

func TestService_StudentSeries(t *testing.T) {
	f := setup(t)

	points, err := f.env.ReportSvc.StudentSeries(context.Background(), f.student)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "03/01", points[0].Label)
	assert.Equal(t, "08/01", points[2].Label)
}

func TestService_LessonRoster(t *testing.T) {
	f := setup(t)

	rst, err := f.env.ReportSvc.LessonRoster(context.Background(), f.lessonID)
	require.NoError(t, err)
	require.Contains(t, rst.PerStudent, f.student)
	res := rst.PerStudent[f.student]
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 15, res.Max)
	assert.Equal(t, 80, res.Percentage)
	assert.Equal(t, report.LevelExcellent, res.Level)
	assert.Equal(t, report.ClassStats{Count: 1, Average: 12, Max: 12, Min: 12}, rst.ClassStats)
}

func TestService_TeacherDashboard(t *testing.T) {
	f := setup(t)

	db, err := f.env.ReportSvc.TeacherDashboard(context.Background(), f.teacher.ID, testutil.Date(t, "2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(t, "2024-01-06"), db.WeekStart)
	assert.Equal(t, 1, db.StudentsCount)
	assert.Equal(t, 2, db.AssessmentsCount)
	assert.Equal(t, 1, db.LessonsCount)
	// (12 + 45) / (15 + 45)
	assert.Equal(t, 95, db.WeeklyPerformance)
}

func TestService_SnapshotWeek(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	day := testutil.Date(t, "2024-01-10")

	// stored before the score validation existed: cannot be aggregated
	broken := testutil.CreateStudent(t, f.env.StudentRepo, f.teacher.ID, "Broken", "Record")
	testutil.CreateAssessment(t, f.env.AssessmentRepo, f.teacher.ID, broken.ID, "", day,
		testutil.Scores(map[string]int{skill.Grammar: 9}))

	skipped := promtest.ToFloat64(report.Computations.WithLabelValues(report.KindSnapshot, "error"))

	snaps, err := f.env.ReportSvc.SnapshotWeek(ctx, day)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	snap := snaps[0]
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, f.student, snap.StudentID)
	assert.Equal(t, f.teacher.ID, snap.TeacherID)
	assert.Equal(t, testutil.Date(t, "2024-01-06"), snap.WeekStart)
	assert.Equal(t, 96, snap.Percentage)
	assert.Equal(t, report.LevelExcellent, snap.Level)
	assert.Equal(t, skipped+1, promtest.ToFloat64(report.Computations.WithLabelValues(report.KindSnapshot, "error")))

	// only the parent with an email is notified
	sent := f.env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, f.parent.Email, sent[0].To[0].Address)
	assert.Equal(t, "Weekly report: Ali Hassan", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Overall: 96% (excellent)")

	// snapshots are replaced, not duplicated
	again, err := f.env.ReportSvc.SnapshotWeek(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, snap.ID, again[0].ID)

	stored, err := f.env.ReportSvc.QuerySnapshots(ctx, &report.SnapshotFilter{StudentID: f.student})
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	none, err := f.env.ReportSvc.SnapshotWeek(ctx, day.AddDate(0, 1, 0))
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_SnapshotWeek_history(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.env.ReportSvc.SnapshotWeek(ctx, testutil.Date(t, "2024-01-03"))
	require.NoError(t, err)
	_, err = f.env.ReportSvc.SnapshotWeek(ctx, testutil.Date(t, "2024-01-10"))
	require.NoError(t, err)

	snaps, err := f.env.ReportSvc.QuerySnapshots(ctx, &report.SnapshotFilter{StudentID: f.student})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	// most recent week first
	assert.True(t, snaps[0].WeekStart.After(snaps[1].WeekStart))

	snaps, err = f.env.ReportSvc.QuerySnapshots(ctx, &report.SnapshotFilter{StudentID: f.student, Limit: 1})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, time.Saturday, snaps[0].WeekStart.Weekday())
}
