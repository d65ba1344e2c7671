package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/apps/api/echo"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/skill"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

func Test_assessmentApi_upsert(t *testing.T) {
	env, app := setup(t)

	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	std := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Amina", "Bello", parent.ID)
	lsn := testutil.CreateLesson(t, env.LessonRepo, teacher.ID, "Surah Al-Fatiha", testutil.Date(t, "2021-03-10"))
	otherLsn := testutil.CreateLesson(t, env.LessonRepo, other.ID, "Grammar", testutil.Date(t, "2021-03-10"))

	teacherToken := getToken(t, env.Conf, teacher)
	body := func(lessonID string, scores map[string]int) []byte {
		return marchallObj(t, assessment.NewAssessment{
			StudentID: std.ID,
			LessonID:  lessonID,
			Date:      "2021-03-10",
			Scores:    testutil.Scores(scores),
		})
	}
	scoreErr := func(key, msg string) []byte {
		return marchallObj(t, map[string]map[string]string{"scores": {key: msg}})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "parent not allowed", method: http.MethodPost, path: "/v1/assessments", token: getToken(t, env.Conf, parent),
			body: body(lsn.ID, map[string]int{skill.Quiz: 30}), wantCode: http.StatusForbidden,
		},
		{
			name: "other teacher's student", method: http.MethodPost, path: "/v1/assessments", token: getToken(t, env.Conf, other),
			body: body("", map[string]int{skill.Quiz: 30}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "unknown student"}),
		},
		{
			name: "other teacher's lesson", method: http.MethodPost, path: "/v1/assessments", token: teacherToken,
			body: body(otherLsn.ID, map[string]int{skill.Quiz: 30}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"lesson_id": "unknown lesson"}),
		},
		{
			name: "score above max", method: http.MethodPost, path: "/v1/assessments", token: teacherToken,
			body: body(lsn.ID, map[string]int{skill.Quiz: 40}), wantCode: http.StatusUnprocessableEntity,
			wantData: scoreErr(skill.Quiz, `invalid score 40 for skill "quiz": must be between 0 and 35`),
		},
		{
			name: "negative score", method: http.MethodPost, path: "/v1/assessments", token: teacherToken,
			body: []byte(`{"student_id": "` + std.ID + `", "date": "2021-03-10", "scores": {"grammar": -1}}`),
			wantCode: http.StatusUnprocessableEntity,
			wantData: scoreErr(skill.Grammar, `invalid score -1 for skill "grammar": must be between 0 and 5`),
		},
		{
			name: "unknown skill", method: http.MethodPost, path: "/v1/assessments", token: teacherToken,
			body: body(lsn.ID, map[string]int{"dance": 3}), wantCode: http.StatusUnprocessableEntity,
			wantData: scoreErr("dance", `unknown skill "dance"`),
		},
		{
			name: "bad date", method: http.MethodPost, path: "/v1/assessments", token: teacherToken,
			body: []byte(`{"student_id": "` + std.ID + `", "date": "10/03/2021"}`), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("upsert replaces the lesson assessment", func(t *testing.T) {
		var ids []string
		for _, quiz := range []int{20, 30} {
			req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", teacherToken, body(lsn.ID, map[string]int{skill.Quiz: quiz, skill.Homework: -1}))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var asm assessment.Assessment
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asm))
			score, ok := asm.Scores.Get(skill.Quiz)
			assert.True(t, ok)
			assert.Equal(t, quiz, score)
			_, ok = asm.Scores.Get(skill.Homework)
			assert.False(t, ok, "null score is not evaluated")
			assert.Equal(t, teacher.ID, asm.TeacherID)
			ids = append(ids, asm.ID)
		}
		assert.Equal(t, ids[0], ids[1])
	})
}

func Test_assessmentApi_retrieve(t *testing.T) {
	env, app := setup(t)

	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	stranger := testutil.CreateUser(t, env.UserRepo, "Stranger", "stranger", "stranger@test.cd", "", []string{user.RoleParent}, true)
	std := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Amina", "Bello", parent.ID)
	asm := testutil.CreateAssessment(t, env.AssessmentRepo, teacher.ID, std.ID, "", testutil.Date(t, "2021-03-10"),
		testutil.Scores(map[string]int{skill.Homework: 8, skill.Quiz: 30, skill.Grammar: -1}))

	want := marchallObj(t, echoapi.AssessmentResponse{
		Assessment: asm,
		Result:     scoring.Result{Total: 38, MaxPossible: 45, Percentage: 84},
	})
	notFound := marchallObj(t, httpErr{Error: "not found"})

	runHTTPTests(t, app, []httpTest{
		{name: "teacher", path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, teacher), wantData: want},
		{name: "parent", path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, parent), wantData: want},
		{
			name: "stranger", path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, stranger),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "parent cannot delete", method: http.MethodDelete, path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, parent),
			wantCode: http.StatusForbidden,
		},
		{name: "parent query", path: "/v1/assessments", token: getToken(t, env.Conf, parent), wantData: marchallList(t, asm)},
		{name: "stranger query", path: "/v1/assessments", token: getToken(t, env.Conf, stranger), wantData: marchallList(t)},
		{name: "teacher deletes", method: http.MethodDelete, path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, teacher), wantCode: http.StatusNoContent},
		{
			name: "deleted", path: "/v1/assessments/" + asm.ID, token: getToken(t, env.Conf, teacher),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	})
}
