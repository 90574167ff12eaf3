package api

import (
	"context"
	"errors"
	"net/http"

	"student-connect/internal/models"
)

// GenericResetMessage is shown for every forgot-password outcome the
// backend reports, so the reply never tells whether an account exists.
const GenericResetMessage = "If an account exists for that email, a reset link has been sent."

type AuthAPI struct{ c *Client }

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var res models.AuthResponse
	in := models.LoginForm{Email: email, Password: password}
	if err := a.c.doJSON(ctx, http.MethodPost, "/api/auth/login", in, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *AuthAPI) Register(ctx context.Context, form models.RegisterForm) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := a.c.doJSON(ctx, http.MethodPost, "/api/auth/register", form, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// ForgotPassword only fails when the request could not be delivered. Any
// answer from the backend yields a message.
func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*models.MessageResponse, error) {
	var res models.MessageResponse
	err := a.c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", models.ForgotPasswordForm{Email: email}, &res, nil)
	if err != nil {
		if errors.Is(err, ErrNetwork) {
			return nil, err
		}
		return &models.MessageResponse{Message: GenericResetMessage}, nil
	}
	if res.Message == "" {
		res.Message = GenericResetMessage
	}
	return &res, nil
}

var resetStatusKinds = map[int]error{
	http.StatusBadRequest:   ErrInvalidToken,
	http.StatusUnauthorized: ErrInvalidToken,
}

func (a *AuthAPI) ResetPassword(ctx context.Context, token, newPassword string) (*models.MessageResponse, error) {
	var res models.MessageResponse
	in := models.ResetPasswordForm{Token: token, NewPassword: newPassword}
	if err := a.c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", in, &res, resetStatusKinds); err != nil {
		return nil, err
	}
	return &res, nil
}
