package report

import (
	"time"

	"github.com/trezcool/tahsil/core/scoring"
)

type (
	// Snapshot is the weekly report of a student as computed at the end of the week.
	// It keeps the maxima of that time, so later catalog changes do not rewrite history.
	Snapshot struct {
		ID         string               `json:"id" db:"id"`
		StudentID  string               `json:"student_id" db:"student_id"`
		TeacherID  string               `json:"teacher_id" db:"teacher_id"`
		WeekStart  time.Time            `json:"week_start" db:"week_start"`
		Percentage int                  `json:"percentage" db:"percentage"`
		Level      Level                `json:"level" db:"level"`
		Report     scoring.PeriodReport `json:"report" db:"-"`
		CreatedAt  time.Time            `json:"created_at" db:"created_at"` // UTC
	}

	SnapshotFilter struct {
		StudentID string    `query:"student_id"`
		TeacherID string    `query:"-"`
		From      time.Time `query:"-"` // week starts, inclusive
		To        time.Time `query:"-"`
		Limit     int       `query:"limit"`
	}

	// Overview is the parent dashboard of one student.
	Overview struct {
		StudentID          string               `json:"student_id"`
		Performance        int                  `json:"performance"`
		Level              Level                `json:"level"`
		CompletedLessons   int                  `json:"completed_lessons"`
		TeacherNotesCount  int                  `json:"teacher_notes_count"`
		Progress           int                  `json:"progress"`
		MostImprovedSkill  *scoring.Improvement `json:"most_improved_skill"`
		Series             []SeriesPoint        `json:"series"`
		RecentAssessmentAt *time.Time           `json:"recent_assessment_at"`
	}

	// Dashboard sums up the current school week of a teacher.
	Dashboard struct {
		TeacherID         string    `json:"teacher_id"`
		WeekStart         time.Time `json:"week_start"`
		StudentsCount     int       `json:"students_count"`
		WeeklyPerformance int       `json:"weekly_performance"`
		AssessmentsCount  int       `json:"assessments_count"`
		LessonsCount      int       `json:"lessons_count"`
	}

	weeklyEmailData struct {
		ParentName  string
		StudentName string
		WeekStart   string
		Skills      []scoring.SkillSummary
		Percentage  int
		Level       Level
	}
)
