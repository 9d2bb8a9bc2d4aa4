package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/services/email"
)

func createAccount(t *testing.T, svc Service, name, email, pwd string) Account {
	t.Helper()
	acc, err := svc.Create(ctx, NewAccount{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd})
	require.NoError(t, err)
	return acc
}

func TestService_Create(t *testing.T) {
	svc := newServiceMock(t)
	acc := createAccount(t, svc, "Jane Doe", "jane@school.test", "Pa55w0rd!")

	assert.NotEmpty(t, acc.ID)
	assert.True(t, acc.IsActive)
	assert.NoError(t, acc.CheckPassword("Pa55w0rd!"))
	assert.False(t, acc.CreatedAt.IsZero())
	assert.True(t, acc.LastLogin.IsZero())

	err := svc.CheckEmailUniqueness("jane@school.test")
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"email": ErrEmailExists.Error()}, vErr.FieldMap())
	assert.NoError(t, svc.CheckEmailUniqueness("john@school.test"))
}

func TestService_Authenticate(t *testing.T) {
	svc := newServiceMock(t)
	jane := createAccount(t, svc, "Jane Doe", "jane@school.test", "Pa55w0rd!")
	john := createAccount(t, svc, "John Doe", "john@school.test", "Pa55w0rd!")
	_, err := svc.SetActive(ctx, john, false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "valid", email: "  JANE@school.test ", pwd: "Pa55w0rd!"},
		{name: "wrong password", email: "jane@school.test", pwd: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "who@school.test", pwd: "Pa55w0rd!", wantErr: ErrInvalidCredentials},
		{name: "inactive", email: "john@school.test", pwd: "Pa55w0rd!", wantErr: ErrInactive},
		{name: "inactive wrong password", email: "john@school.test", pwd: "nope", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, jane.ID, acc.ID)
			assert.WithinDuration(t, time.Now().UTC(), acc.LastLogin, time.Minute)

			stored, err := svc.GetByID(ctx, jane.ID)
			require.NoError(t, err)
			assert.Equal(t, acc.LastLogin, stored.LastLogin)
		})
	}
}

func TestService_PasswordRecovery(t *testing.T) {
	svc := newServiceMock(t)
	jane := createAccount(t, svc, "Jane Doe", "jane@school.test", "Pa55w0rd!")
	emailsvc.ResetSentMessages()

	t.Run("unknown email", func(t *testing.T) {
		assert.Equal(t, ErrNotFound, svc.RequestPasswordRecovery(ctx, "who@school.test"))
		_, sent := emailsvc.LastSentMessage()
		assert.False(t, sent)
	})

	require.NoError(t, svc.RequestPasswordRecovery(ctx, "Jane@School.test"))
	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, "jane@school.test", msg.To[0].Address)
	assert.Equal(t, "password_recovery", msg.TemplateName)
	data := msg.TemplateData.(map[string]interface{})
	code := data["Code"].(string)
	assert.NotEmpty(t, code)
	assert.Equal(t, 3, data["ValidDays"])

	t.Run("bad code", func(t *testing.T) {
		err := svc.RecoverPassword(ctx, RecoverPassword{Email: jane.Email, Code: "bad-code", Password: "N3w-P@ss"})
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"code": ErrInvalidCode.Error()}, vErr.FieldMap())
	})

	t.Run("unknown email", func(t *testing.T) {
		err := svc.RecoverPassword(ctx, RecoverPassword{Email: "who@school.test", Code: code, Password: "N3w-P@ss"})
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok)
	})

	require.NoError(t, svc.RecoverPassword(ctx, RecoverPassword{Email: jane.Email, Code: code, Password: "N3w-P@ss"}))
	_, err := svc.Authenticate(ctx, jane.Email, "N3w-P@ss")
	assert.NoError(t, err)

	t.Run("code is single use", func(t *testing.T) {
		err := svc.RecoverPassword(ctx, RecoverPassword{Email: jane.Email, Code: code, Password: "An0ther-P@ss"})
		assert.Error(t, err)
	})

	t.Run("inactive", func(t *testing.T) {
		acc, err := svc.GetByID(ctx, jane.ID)
		require.NoError(t, err)
		_, err = svc.SetActive(ctx, acc, false)
		require.NoError(t, err)
		assert.Equal(t, ErrInactive, svc.RequestPasswordRecovery(ctx, jane.Email))
	})
}

func TestService_Delete(t *testing.T) {
	svc := newServiceMock(t)
	jane := createAccount(t, svc, "Jane Doe", "jane@school.test", "Pa55w0rd!")
	createAccount(t, svc, "John Doe", "john@school.test", "Pa55w0rd!")

	require.NoError(t, svc.Delete(ctx, jane.ID))
	_, err := svc.GetByID(ctx, jane.ID)
	assert.Equal(t, ErrNotFound, err)

	accs, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, "john@school.test", accs[0].Email)
}
