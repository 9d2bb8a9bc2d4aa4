package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

const (
	recoverySentMsg = "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with a recovery code."
	recoveryDoneMsg = "Password has been reset with the new password."
)

type accountAPI struct {
	*server
	svc account.Service
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := accountAPI{server: s, svc: s.deps.AccountSvc}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/password-recovery", api.requestPasswordRecovery, s.limiter.middleware())
	ag.POST("/password-recovery/confirm", api.confirmPasswordRecovery, s.limiter.middleware())

	// authed endpoints
	ag.GET("/me", api.me, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *accountAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	acc, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		api.metrics.RecordLogin(false)
		switch errors.Cause(err) {
		case account.ErrInvalidCredentials:
			return errAuthenticationFailed
		case account.ErrInactive:
			return errAccountDeactivated
		default:
			return errors.Wrap(err, "authenticating")
		}
	}
	api.metrics.RecordLogin(true)

	token, err := api.auth.GenerateToken(api.auth.accountClaims(acc))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{ID: acc.ID, Token: token})
}

func (api *accountAPI) requestPasswordRecovery(ctx echo.Context) error {
	var data PasswordRecoveryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordRecoveryRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordRecovery(ctx.Request().Context(), data.Email)
	switch errors.Cause(err) {
	case nil:
		api.metrics.RecordRecovery("sent")
	case account.ErrNotFound, account.ErrInactive:
		// do not tell attackers which emails exist
		api.metrics.RecordRecovery("ignored")
	default:
		api.metrics.RecordRecovery("failed")
		err = errors.Wrap(err, "requesting password recovery")
		api.deps.Logger.Error(fmt.Sprintf("%+v", err), err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: recoverySentMsg})
}

func (api *accountAPI) confirmPasswordRecovery(ctx echo.Context) error {
	var data account.RecoverPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecoverPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.svc.RecoverPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "recovering password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: recoveryDoneMsg})
}

func (api *accountAPI) me(ctx echo.Context) error {
	acc, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountAPI) refreshToken(ctx echo.Context) error {
	acc, token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{ID: acc.ID, Token: token})
}
