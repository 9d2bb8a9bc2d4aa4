package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		var data loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch data.Email {
		case "jane@school.test":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"42","token":"t0k3n"}`))
		case "inactive@school.test":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"account deactivated"}`))
		case "broken@school.test":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"authentication failed"}`))
		}
	})
	mux.HandleFunc(recoveryPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":"sent"}`))
	})
	mux.HandleFunc(recoveryConfirmPath, func(w http.ResponseWriter, r *http.Request) {
		var data recoveryConfirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
		assert.Equal(t, data.Password, data.PasswordConfirm)

		if data.Code != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"invalid or expired code","password":"password is too common"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":"reset"}`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBackend_Authenticate(t *testing.T) {
	srv := newTestServer(t)
	b := New(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	ident, err := b.Authenticate(ctx, "jane@school.test", "pwd")
	require.NoError(t, err)
	assert.Equal(t, "42", ident.ID)

	tests := []struct {
		email    string
		wantCode int
		wantMsg  string
	}{
		{email: "nobody@school.test", wantCode: http.StatusBadRequest, wantMsg: "authentication failed"},
		{email: "inactive@school.test", wantCode: http.StatusForbidden, wantMsg: "account deactivated"},
		{email: "broken@school.test", wantCode: http.StatusInternalServerError, wantMsg: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			_, err := b.Authenticate(ctx, tt.email, "pwd")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "%v", err)
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestBackend_Recovery(t *testing.T) {
	srv := newTestServer(t)
	b := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	assert.NoError(t, b.SendRecoveryCode(ctx, "jane@school.test"))
	assert.NoError(t, b.ResetPassword(ctx, "jane@school.test", "good-code", "N3w-P@ssw0rd"))

	err := b.ResetPassword(ctx, "jane@school.test", "bad-code", "password")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "%v", err)
	assert.Equal(t, map[string]string{
		"code":     "invalid or expired code",
		"password": "password is too common",
	}, vErr.FieldMap())
	assert.Equal(t, "account api: 400 invalid data", err.Error())
}

func TestBackend_Cancel(t *testing.T) {
	srv := newTestServer(t)
	b := New(srv.URL, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.post(ctx, "/slow", recoveryRequest{}, nil)
	assert.Equal(t, context.DeadlineExceeded, err)
}
