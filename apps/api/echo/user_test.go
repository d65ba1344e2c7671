package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/apps/api/echo"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

func Test_userApi_login(t *testing.T) {
	env, app := setup(t)

	pwd := "Pass1234!"
	testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", pwd, []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog", "ndog@test.cd", pwd, []string{user.RoleParent}, false)

	body := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}
	failed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{name: "unknown user", body: body("nobody", pwd), wantCode: http.StatusBadRequest, wantData: failed},
		{name: "wrong password", body: body("teacher", "lol"), wantCode: http.StatusBadRequest, wantData: failed},
		{
			name: "inactive user", body: body("ndog", pwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", body: body("teacher", pwd)},
		{name: "by email", body: body("TEACHER@test.cd", pwd)},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env, app := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			if *isActive {
				v.Add("is_active", "true")
			} else {
				v.Add("is_active", "false")
			}
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleParent}, false)

	adminToken := getToken(t, env.Conf, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, env.Conf, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, admin, naughty, parent, teacher)},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: marchallList(t)},
		{name: "search=PAR", path: path("PAR", nil), token: adminToken, wantData: marchallList(t, parent)},
		{name: "role=parent:", path: path("", nil, user.RoleParent), token: adminToken, wantData: marchallList(t, naughty, parent)},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "role & is_active", path: path("", bPtr(true), user.RoleParent, user.RoleTeacher),
			token: adminToken, wantData: marchallList(t, parent, teacher),
		},
	})
}

func Test_userApi_retrieve(t *testing.T) {
	env, app := setup(t)

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)

	notFound := marchallObj(t, httpErr{Error: "not found"})

	runHTTPTests(t, app, []httpTest{
		{name: "self", path: "/v1/users/" + parent.ID, token: getToken(t, env.Conf, parent), wantData: marchallObj(t, parent)},
		{
			name: "somebody else", path: "/v1/users/" + teacher.ID, token: getToken(t, env.Conf, parent),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "admin", path: "/v1/users/" + teacher.ID, token: getToken(t, env.Conf, admin), wantData: marchallObj(t, teacher)},
		{
			name: "unknown", path: "/v1/users/lol", token: getToken(t, env.Conf, admin),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env, app := setup(t)

	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleParent}, false)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    env.Conf.AppName,
			Subject:   parent.ID,
			Audience:  env.Conf.AppName,
			ExpiresAt: now.Add(env.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * env.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsParent:     parent.IsParent(),
		Roles:        parent.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(env.Conf, unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, env.Conf, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, env.Conf, parent)},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/token-refresh"
	}
	runHTTPTests(t, app, tests)
}
