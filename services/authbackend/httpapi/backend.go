package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
)

const (
	loginPath           = "/v1/auth/login"
	recoveryPath        = "/v1/auth/password-recovery"
	recoveryConfirmPath = "/v1/auth/password-recovery/confirm"
)

// APIError is a non-2xx response of the account API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("account api: %d %s", e.StatusCode, e.Message)
}

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}

	recoveryRequest struct {
		Email string `json:"email"`
	}

	recoveryConfirmRequest struct {
		Email           string `json:"email"`
		Code            string `json:"code"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
)

// Backend fulfils session.Backend by calling the account HTTP API.
type Backend struct {
	baseURL string
	client  *rest.Client
}

var _ session.Backend = (*Backend)(nil)

func New(baseURL string, timeout time.Duration) *Backend {
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func (b *Backend) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	var res loginResponse
	if err := b.post(ctx, loginPath, loginRequest{Email: email, Password: password}, &res); err != nil {
		return session.Identity{}, err
	}
	if res.ID == "" {
		return session.Identity{}, errors.New("account api: login response without id")
	}
	return session.Identity{ID: res.ID}, nil
}

func (b *Backend) SendRecoveryCode(ctx context.Context, email string) error {
	return b.post(ctx, recoveryPath, recoveryRequest{Email: email}, nil)
}

func (b *Backend) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	data := recoveryConfirmRequest{
		Email:           email,
		Code:            code,
		Password:        newPassword,
		PasswordConfirm: newPassword,
	}
	return b.post(ctx, recoveryConfirmPath, data, nil)
}

func (b *Backend) post(ctx context.Context, path string, body, dest interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}

	res, err := b.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: b.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
		Body:    data,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(err, "calling account api")
	}

	if res.StatusCode >= http.StatusBadRequest {
		return decodeError(res)
	}
	if dest != nil {
		if err = json.Unmarshal([]byte(res.Body), dest); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// decodeError maps `{"error": msg}` bodies to an *APIError and `{field: msg}` bodies to a *core.ValidationError.
func decodeError(res *rest.Response) error {
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil || len(body) == 0 {
		return &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}

	if msg, ok := body["error"].(string); ok {
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}

	fields := make([]core.FieldError, 0, len(body))
	for fld, msg := range body {
		fields = append(fields, core.FieldError{Field: fld, Error: fmt.Sprint(msg)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return core.NewValidationError(&APIError{StatusCode: res.StatusCode, Message: "invalid data"}, fields...)
}
