package report

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
)

type (
	SnapshotRepository interface {
		// ReplaceSnapshots stores snaps in place of the snapshots of the same students and week.
		ReplaceSnapshots(ctx context.Context, snaps []Snapshot) ([]Snapshot, error)
		// QuerySnapshots lists snapshots, most recent week first.
		QuerySnapshots(ctx context.Context, filter *SnapshotFilter) ([]Snapshot, error)
	}

	AssessmentQuerier interface {
		Query(ctx context.Context, filter *assessment.QueryFilter, ordering []core.DBOrdering) ([]assessment.Assessment, error)
		Count(ctx context.Context, filter *assessment.QueryFilter) (int, error)
	}

	StudentQuerier interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
		Count(ctx context.Context, filter *student.QueryFilter) (int, error)
		ParentIDs(ctx context.Context, studentID string) ([]string, error)
	}

	LessonCounter interface {
		CountBetween(ctx context.Context, teacherID string, from, to time.Time) (int, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Options struct {
		SeriesWindow int // records charted in the student series
		HistorySize  int // records considered by the student overview
	}

	Service struct {
		agg         *scoring.Aggregator
		snapshots   SnapshotRepository
		assessments AssessmentQuerier
		students    StudentQuerier
		lessons     LessonCounter
		users       UserGetter
		mailSvc     core.EmailService
		logger      core.Logger
		opts        Options
	}
)

func NewService(
	agg *scoring.Aggregator,
	snapshots SnapshotRepository,
	assessments AssessmentQuerier,
	students StudentQuerier,
	lessons LessonCounter,
	users UserGetter,
	mailSvc core.EmailService,
	logger core.Logger,
	opts Options,
) *Service {
	return &Service{
		agg:         agg,
		snapshots:   snapshots,
		assessments: assessments,
		students:    students,
		lessons:     lessons,
		users:       users,
		mailSvc:     mailSvc,
		logger:      logger,
		opts:        opts,
	}
}

func (svc *Service) Aggregator() *scoring.Aggregator { return svc.agg }

// WeeklyReport aggregates the assessments of a student over the school week containing day.
// A week without assessments gives a nil report.
func (svc *Service) WeeklyReport(ctx context.Context, studentID string, day time.Time) (rep *scoring.PeriodReport, err error) {
	defer func() { observe(KindWeekly, err) }()

	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{
		StudentIDs: []string{studentID},
		From:       core.WeekStart(day),
		To:         core.WeekEnd(day),
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	return svc.agg.AggregatePeriod(assessment.Records(asms))
}

// StudentOverview sums up the most recent assessments of a student.
func (svc *Service) StudentOverview(ctx context.Context, studentID string) (ov *Overview, err error) {
	defer func() { observe(KindOverview, err) }()

	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{
		StudentIDs: []string{studentID},
		Limit:      svc.opts.HistorySize,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	completed, err := svc.assessments.Count(ctx, &assessment.QueryFilter{StudentIDs: []string{studentID}})
	if err != nil {
		return nil, errors.Wrap(err, "counting assessments")
	}

	records := assessment.Records(asms)
	ov = &Overview{StudentID: studentID, CompletedLessons: completed, Series: []SeriesPoint{}}
	if len(records) == 0 {
		ov.Level = LevelOf(0)
		return ov, nil
	}

	if ov.Performance, err = svc.agg.AveragePerformance(records); err != nil {
		return nil, err
	}
	ov.Level = LevelOf(ov.Performance)
	if ov.Progress, err = svc.agg.LatestProgress(records); err != nil {
		return nil, err
	}
	if ov.MostImprovedSkill, err = svc.agg.LatestImprovement(records); err != nil {
		return nil, err
	}
	if ov.Series, err = NewSeries(svc.agg, records, svc.opts.SeriesWindow); err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.TeacherNotes != "" {
			ov.TeacherNotesCount++
		}
		if ov.RecentAssessmentAt == nil || r.Date.After(*ov.RecentAssessmentAt) {
			date := r.Date
			ov.RecentAssessmentAt = &date
		}
	}
	return ov, nil
}

// StudentSeries charts the percentages of the most recent assessments of a student.
func (svc *Service) StudentSeries(ctx context.Context, studentID string) (points []SeriesPoint, err error) {
	defer func() { observe(KindSeries, err) }()

	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{
		StudentIDs: []string{studentID},
		Limit:      svc.opts.SeriesWindow,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	return NewSeries(svc.agg, assessment.Records(asms), svc.opts.SeriesWindow)
}

// LessonRoster reports the results of the students assessed in a lesson.
func (svc *Service) LessonRoster(ctx context.Context, lessonID string) (rst *Roster, err error) {
	defer func() { observe(KindRoster, err) }()

	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{LessonID: lessonID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	return NewRoster(svc.agg, assessment.Records(asms))
}

// TeacherDashboard sums up the school week containing now for a teacher.
func (svc *Service) TeacherDashboard(ctx context.Context, teacherID string, now time.Time) (db *Dashboard, err error) {
	defer func() { observe(KindDashboard, err) }()

	from, to := core.WeekStart(now), core.WeekEnd(now)
	db = &Dashboard{TeacherID: teacherID, WeekStart: from}

	if db.StudentsCount, err = svc.students.Count(ctx, &student.QueryFilter{TeacherID: teacherID}); err != nil {
		return nil, errors.Wrap(err, "counting students")
	}
	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{TeacherID: teacherID, From: from, To: to}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	db.AssessmentsCount = len(asms)
	if db.WeeklyPerformance, err = svc.agg.AveragePerformance(assessment.Records(asms)); err != nil {
		return nil, err
	}
	if db.LessonsCount, err = svc.lessons.CountBetween(ctx, teacherID, from, to); err != nil {
		return nil, errors.Wrap(err, "counting lessons")
	}
	return db, nil
}

// SnapshotWeek computes and stores the weekly report of every student assessed during the
// school week containing day, then emails it to their parents.
// A student whose records cannot be aggregated is logged and skipped.
func (svc *Service) SnapshotWeek(ctx context.Context, day time.Time) ([]Snapshot, error) {
	from, to := core.WeekStart(day), core.WeekEnd(day)
	asms, err := svc.assessments.Query(ctx, &assessment.QueryFilter{From: from, To: to}, nil)
	if err != nil {
		observe(KindSnapshot, err)
		return nil, errors.Wrap(err, "querying assessments")
	}

	byStudent := make(map[string][]assessment.Assessment)
	var studentIDs []string
	for _, asm := range asms {
		if _, ok := byStudent[asm.StudentID]; !ok {
			studentIDs = append(studentIDs, asm.StudentID)
		}
		byStudent[asm.StudentID] = append(byStudent[asm.StudentID], asm)
	}
	sort.Strings(studentIDs)

	now := time.Now().UTC()
	snaps := make([]Snapshot, 0, len(studentIDs))
	for _, id := range studentIDs {
		group := byStudent[id]
		rep, err := svc.agg.AggregatePeriod(assessment.Records(group))
		observe(KindSnapshot, err)
		if err != nil {
			svc.logger.Warn("weekly snapshot skipped", err, map[string]interface{}{
				"student_id": id,
				"week_start": from.Format(core.DateLayout),
			})
			continue
		}
		snaps = append(snaps, Snapshot{
			StudentID:  id,
			TeacherID:  group[0].TeacherID,
			WeekStart:  from,
			Percentage: rep.Percentage,
			Level:      LevelOf(rep.Percentage),
			Report:     *rep,
			CreatedAt:  now,
		})
	}
	if len(snaps) == 0 {
		return snaps, nil
	}

	snaps, err = svc.snapshots.ReplaceSnapshots(ctx, snaps)
	if err != nil {
		return nil, errors.Wrap(err, "storing snapshots")
	}
	svc.sendWeeklyEmails(ctx, snaps)
	return snaps, nil
}

func (svc *Service) QuerySnapshots(ctx context.Context, filter *SnapshotFilter) ([]Snapshot, error) {
	snaps, err := svc.snapshots.QuerySnapshots(ctx, filter)
	return snaps, errors.Wrap(err, "querying snapshots")
}

// sendWeeklyEmails emails each snapshot to the parents of the student who have an email.
// Failures are logged: the snapshots are stored already.
func (svc *Service) sendWeeklyEmails(ctx context.Context, snaps []Snapshot) {
	var msgs []*core.EmailMessage
	for _, snap := range snaps {
		std, err := svc.students.GetByID(ctx, snap.StudentID)
		if err != nil {
			svc.logger.Error("weekly email: getting student", err, map[string]interface{}{"student_id": snap.StudentID})
			continue
		}
		parentIDs, err := svc.students.ParentIDs(ctx, snap.StudentID)
		if err != nil {
			svc.logger.Error("weekly email: getting parents", err, map[string]interface{}{"student_id": snap.StudentID})
			continue
		}
		for _, parentID := range parentIDs {
			parent, err := svc.users.GetByID(ctx, parentID)
			if err != nil {
				svc.logger.Error("weekly email: getting parent", err, map[string]interface{}{"parent_id": parentID})
				continue
			}
			if parent.Email == "" || !parent.IsActive {
				continue
			}
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: parent.Name, Address: parent.Email}},
				Subject:      "Weekly report: " + std.FullName(),
				TemplateName: "weekly_report",
				TemplateData: weeklyEmailData{
					ParentName:  parent.Name,
					StudentName: std.FullName(),
					WeekStart:   snap.WeekStart.Format(core.DateLayout),
					Skills:      snap.Report.Skills,
					Percentage:  snap.Percentage,
					Level:       snap.Level,
				},
			})
		}
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}
