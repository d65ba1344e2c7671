package user

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core"
)

type uniqueSvc struct {
	ServiceInterface
	err error
}

func (svc uniqueSvc) CheckUniqueness(_ context.Context, _, _ string, _ ...User) error {
	return svc.err
}

func newTestValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicyViolation(t *testing.T) {
	commonPasswords = []string{"azerty12!a", "password1!a"}
	defer func() { commonPasswords = nil }()

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcd1234!", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcd12345", want: pwdComplexityTag},
		{name: "no digit", pwd: "Abcdefgh!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Teacher1!", attrs: []string{"teacher1"}, want: pwdAttrSimTag},
		{name: "common", pwd: "Password1!A", want: pwdNoCommonTag},
		{name: "valid", pwd: "Xq7!mLp#2z", attrs: []string{"Amina Said", "amina_said", "amina@school.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, passwordPolicyViolation(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate := newTestValidator()
	ctx := context.Background()

	valid := func() NewUser {
		return NewUser{
			Name:            "  Amina Said ",
			Username:        " Amina_Said",
			Email:           "Amina@School.test",
			Password:        "Xq7!mLp#2z",
			PasswordConfirm: "Xq7!mLp#2z",
			Roles:           []string{RoleTeacher},
		}
	}

	t.Run("valid", func(t *testing.T) {
		nu := valid()
		require.NoError(t, nu.Validate(ctx, validate, uniqueSvc{}))
		assert.Equal(t, "Amina Said", nu.Name)
		assert.Equal(t, "amina_said", nu.Username)
		assert.Equal(t, "amina@school.test", nu.Email)
	})

	t.Run("unknown role", func(t *testing.T) {
		nu := valid()
		nu.Roles = []string{"janitor:"}
		err := nu.Validate(ctx, validate, uniqueSvc{})
		require.Error(t, err)
		verrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, allRolesTag, verrs[0].Tag())
	})

	t.Run("no username nor email", func(t *testing.T) {
		nu := valid()
		nu.Username, nu.Email = "", ""
		err := nu.Validate(ctx, validate, uniqueSvc{})
		require.Error(t, err)
		verrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, verrs, 2)
		assert.Equal(t, usernameOrEmailTag, verrs[0].Tag())
	})

	t.Run("passwords mismatch", func(t *testing.T) {
		nu := valid()
		nu.PasswordConfirm = "other"
		assert.Error(t, nu.Validate(ctx, validate, uniqueSvc{}))
	})

	t.Run("username taken", func(t *testing.T) {
		nu := valid()
		taken := core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		assert.Equal(t, taken, nu.Validate(ctx, validate, uniqueSvc{err: taken}))
	})
}

func TestUpdateUser_Validate(t *testing.T) {
	validate := newTestValidator()
	orig := User{ID: "1", Name: "Amina Said", Username: "amina_said", Email: "amina@school.test", Phone: "+255700000000"}

	uu := UpdateUser{Name: " Amina S. "}
	require.NoError(t, uu.Validate(context.Background(), orig, validate, uniqueSvc{}))
	assert.Equal(t, "Amina S.", uu.Name)
	assert.Equal(t, orig.Username, uu.Username)
	assert.Equal(t, orig.Email, uu.Email)
	assert.Equal(t, orig.Phone, uu.Phone)

	uu = UpdateUser{Password: "short"}
	assert.Error(t, uu.Validate(context.Background(), orig, validate, uniqueSvc{}))
}

func TestRoles(t *testing.T) {
	usr := User{Roles: []string{RoleParent, RoleAdminPrincipal}}
	assert.True(t, usr.IsAdmin())
	assert.True(t, usr.IsParent())
	assert.False(t, usr.IsTeacher())
	assert.Equal(t, 29, MaxRolePriority(usr.Roles))
	assert.Equal(t, 0, MaxRolePriority(nil))
	assert.ElementsMatch(t, []string{RoleAdmin, RoleAdminPrincipal, RoleTeacher, RoleParent}, AllRoles)
}
