package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

func Test_studentApi(t *testing.T) {
	env, app := setup(t)

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	stranger := testutil.CreateUser(t, env.UserRepo, "Stranger", "stranger", "stranger@test.cd", "", []string{user.RoleParent}, true)

	amina := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Amina", "Bello", parent.ID)
	omar := testutil.CreateStudent(t, env.StudentRepo, other.ID, "Omar", "Diallo")

	teacherToken := getToken(t, env.Conf, teacher)
	parentToken := getToken(t, env.Conf, parent)
	notFound := marchallObj(t, httpErr{Error: "not found"})
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, student.NewStudent{
			TeacherID:  other.ID, // ignored for teachers
			FirstName:  "  Yusuf ",
			LastName:   "Kane",
			GradeLevel: "grade 3",
			GroupType:  "boys",
		})

		req, rec := newAuthRequest(http.MethodPost, "/v1/students", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.NotEmpty(t, std.ID)
		assert.Equal(t, teacher.ID, std.TeacherID)
		assert.Equal(t, "Yusuf", std.FirstName)

		req, rec = newAuthRequest(http.MethodPost, "/v1/students", parentToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodPost, "/v1/students", teacherToken, marchallObj(t, student.NewStudent{}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/students/" + amina.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "owner teacher", path: "/v1/students/" + amina.ID, token: teacherToken, wantData: marchallObj(t, amina)},
		{name: "linked parent", path: "/v1/students/" + amina.ID, token: parentToken, wantData: marchallObj(t, amina)},
		{name: "admin", path: "/v1/students/" + omar.ID, token: getToken(t, env.Conf, admin), wantData: marchallObj(t, omar)},
		{
			name: "other teacher", path: "/v1/students/" + omar.ID, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "stranger parent", path: "/v1/students/" + amina.ID, token: getToken(t, env.Conf, stranger),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "parent query", path: "/v1/students", token: parentToken, wantData: marchallList(t, amina)},
		{
			name: "parent cannot update", method: http.MethodPut, path: "/v1/students/" + amina.ID, token: parentToken,
			body: []byte(`{"first_name": "Lol"}`), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "parent cannot delete", method: http.MethodDelete, path: "/v1/students/" + amina.ID, token: parentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "other teacher cannot delete", method: http.MethodDelete, path: "/v1/students/" + amina.ID, token: getToken(t, env.Conf, other),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "parents", path: "/v1/students/" + amina.ID + "/parents", token: teacherToken, wantData: marchallList(t, parent)},
		{
			name: "link a non parent", method: http.MethodPost, path: "/v1/students/" + amina.ID + "/parents", token: teacherToken,
			body: marchallObj(t, map[string]string{"parent_id": other.ID}), wantCode: http.StatusBadRequest,
		},
		{
			name: "link parent", method: http.MethodPost, path: "/v1/students/" + amina.ID + "/parents", token: teacherToken,
			body: marchallObj(t, map[string]string{"parent_id": stranger.ID}), wantCode: http.StatusNoContent,
		},
		{name: "linked parent now sees child", path: "/v1/students/" + amina.ID, token: getToken(t, env.Conf, stranger), wantData: marchallObj(t, amina)},
		{
			name: "unlink parent", method: http.MethodDelete, path: "/v1/students/" + amina.ID + "/parents/" + stranger.ID, token: teacherToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "unlinked parent", path: "/v1/students/" + amina.ID, token: getToken(t, env.Conf, stranger),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "owner deletes", method: http.MethodDelete, path: "/v1/students/" + amina.ID, token: teacherToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/students/" + amina.ID, token: teacherToken, wantCode: http.StatusNotFound, wantData: notFound},
	})
}
