package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/skill"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

func setup(t *testing.T) (*testutil.Env, *commandLine) {
	env := testutil.NewEnv(t)
	return env, &commandLine{
		usrRepo:   env.UserRepo,
		snapshots: env.ReportSvc,
		logger:    env.Logger,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	_, cli := setup(t)

	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "snapshots", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	env, cli := setup(t)

	usr := testutil.CreateUser(t, env.UserRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := env.UserRepo.GetUserByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
				assert.NoError(t, refreshedUsr.CheckPassword(tt.extra.(extra).pwd))
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	env, cli := setup(t)

	existing := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "mdr", []string{user.RoleTeacher}, false)
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Pass1234!"), nil }

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "admin"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-username", "admin", "-email", "admin@test.cd", "-role", "janitor"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "new admin", args: []string{"adduser", "-username", "Admin", "-email", "ADMIN@test.cd", "-name", "The Admin"}},
		{name: "existing user", args: []string{"adduser", "-username", "teacher", "-email", "teacher@test.cd", "-role", "principal"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	ctx := context.Background()
	admin, err := env.UserRepo.GetUserByUsernameOrEmail(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@test.cd", admin.Email)
	assert.Equal(t, "The Admin", admin.Name)
	assert.True(t, admin.IsActive)
	assert.True(t, admin.IsAdmin())
	assert.NoError(t, admin.CheckPassword("Pass1234!"))

	updated, err := env.UserRepo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teacher", updated.Name)
	assert.True(t, updated.IsActive)
	assert.Equal(t, []string{user.RoleAdminPrincipal}, updated.Roles)
	assert.NoError(t, updated.CheckPassword("Pass1234!"))
}

func Test_commandLine_snapshot(t *testing.T) {
	env, cli := setup(t)

	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	std := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Amina", "Bello")
	testutil.CreateAssessment(t, env.AssessmentRepo, teacher.ID, std.ID, "", testutil.Date(t, "2021-03-10"),
		testutil.Scores(map[string]int{skill.Homework: 8}))
	nowFunc = func() time.Time { return testutil.Date(t, "2021-03-11") }
	defer func() { nowFunc = time.Now }()

	tests := []cliTest{
		{name: "bad week", args: []string{"snapshot", "-week", "10/03/2021"}, wantErrStr: `parsing week: parsing time "10/03/2021" as "2006-01-02": cannot parse "10/03/2021" as "2006"`},
		{name: "empty week", args: []string{"snapshot", "-week", "2021-03-20"}},
		{name: "given week", args: []string{"snapshot", "-week", "2021-03-06"}},
		{name: "current week", args: []string{"snapshot"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	snaps, err := env.ReportSvc.QuerySnapshots(context.Background(), &report.SnapshotFilter{StudentID: std.ID})
	require.NoError(t, err)
	assert.Len(t, snaps, 1, "one snapshot per student and week")
	if len(snaps) > 0 {
		assert.Equal(t, 80, snaps[0].Percentage)
	}
}
