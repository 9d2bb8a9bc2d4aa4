package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/tests"
)

const pwd = "Pa55w0rd!"

func TestAccountAPI_Login(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateAccount(t, app.repo, "Jane Doe", "teacher.jane@school.test", pwd, true)
	testutil.CreateAccount(t, app.repo, "John Doe", "john@school.test", pwd, false)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name:     "wrong password",
			body:     marshalObj(t, LoginRequest{Email: jane.Email, Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     marshalObj(t, LoginRequest{Email: "who@school.test", Password: pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "inactive",
			body:     marshalObj(t, LoginRequest{Email: "john@school.test", Password: pwd}),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "valid",
			body:     marshalObj(t, LoginRequest{Email: " Teacher.Jane@school.test ", Password: pwd}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decodeBody(t, rec.Body, &res)
				assert.Equal(t, jane.ID, res.ID)

				claims := new(Claims)
				_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
					return []byte("secret"), nil
				})
				require.NoError(t, err)
				assert.Equal(t, jane.ID, claims.Subject)
				assert.Equal(t, session.RoleInstructor, claims.Role)
				assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)
			}
		})
	}
}

func TestAccountAPI_Me(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateAccount(t, app.repo, "Jane Doe", "jane@school.test", pwd, true)

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "bad token", token: "nope", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "valid", token: app.getToken(t, jane), wantCode: http.StatusOK, wantData: marshalObj(t, jane)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("deleted account", func(t *testing.T) {
		token := app.getToken(t, jane)
		require.NoError(t, app.repo.DeleteAccountsByID(context.Background(), jane.ID))
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "account not authenticated"})}, rec)
	})
}

func TestAccountAPI_RefreshToken(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateAccount(t, app.repo, "Jane Doe", "jane@school.test", pwd, true)
	john := testutil.CreateAccount(t, app.repo, "John Doe", "john@school.test", pwd, false)

	expired := app.auth.accountClaims(jane, time.Now().Add(-5*time.Hour).Unix())
	expiredToken, err := app.auth.GenerateToken(expired)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "valid", token: app.getToken(t, jane), wantCode: http.StatusOK},
		{name: "inactive", token: app.getToken(t, john), wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"})},
		{name: "refresh expired", token: expiredToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decodeBody(t, rec.Body, &res)
				assert.Equal(t, jane.ID, res.ID)
				assert.NotEmpty(t, res.Token)
			}
		})
	}
}

func TestAccountAPI_PasswordRecovery(t *testing.T) {
	conf := newTestConfig()
	conf.Server.RecoveryRateBurst = 10
	app := setup(t, conf)
	jane := testutil.CreateAccount(t, app.repo, "Jane Doe", "jane@school.test", pwd, true)
	emailsvc.ResetSentMessages()

	sent := marshalObj(t, SuccessResponse{Success: recoverySentMsg})

	t.Run("unknown email is hidden", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-recovery", marshalObj(t, PasswordRecoveryRequest{Email: "who@school.test"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: sent}, rec)
		_, ok := emailsvc.LastSentMessage()
		assert.False(t, ok)
	})

	req, rec := newRequest(http.MethodPost, "/v1/auth/password-recovery", marshalObj(t, PasswordRecoveryRequest{Email: jane.Email}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: sent}, rec)

	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	code := msg.TemplateData.(map[string]interface{})["Code"].(string)

	newPwd := "N3w-Str0ng!"
	tests := []httpTest{
		{
			name:     "password mismatch",
			body:     marshalObj(t, map[string]string{"email": jane.Email, "code": code, "password": newPwd, "password_confirm": "other"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "weak password",
			body:     marshalObj(t, map[string]string{"email": jane.Email, "code": code, "password": "short", "password_confirm": "short"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name:     "bad code",
			body:     marshalObj(t, map[string]string{"email": jane.Email, "code": "bad-code", "password": newPwd, "password_confirm": newPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"code": "invalid or expired code"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/password-recovery/confirm", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec = newRequest(http.MethodPost, "/v1/auth/password-recovery/confirm",
		marshalObj(t, map[string]string{"email": jane.Email, "code": code, "password": newPwd, "password_confirm": newPwd}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshalObj(t, SuccessResponse{Success: recoveryDoneMsg})}, rec)

	req, rec = newRequest(http.MethodPost, "/v1/auth/login", marshalObj(t, LoginRequest{Email: jane.Email, Password: newPwd}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountAPI_RecoveryRateLimit(t *testing.T) {
	app := setup(t)
	body := marshalObj(t, PasswordRecoveryRequest{Email: "who@school.test"})

	for i := 0; i < 3; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-recovery", body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req, rec := newRequest(http.MethodPost, "/v1/auth/password-recovery", body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusTooManyRequests, wantData: marshalObj(t, httpErr{Error: "too many requests"})}, rec)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// other clients are not affected
	req, rec = newRequest(http.MethodPost, "/v1/auth/password-recovery", body)
	req.RemoteAddr = "10.0.0.2:1234"
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
