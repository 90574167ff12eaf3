package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"student-connect/internal/api"
	"student-connect/internal/models"
	"student-connect/internal/session"
	"student-connect/internal/utils"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
	ModeForgot   Mode = "forgot"
)

// AuthScreen is the sign-in page with its three mutually exclusive forms.
// A successful login or registration moves the session to authenticated;
// a failure only sets the message and never changes the mode.
type AuthScreen struct {
	mu          sync.Mutex
	auth        *api.AuthAPI
	session     *session.Session
	mode        Mode
	loading     bool
	message     string
	fieldErrors []utils.FieldError
}

func NewAuthScreen(client *api.Client, sess *session.Session) *AuthScreen {
	return &AuthScreen{auth: client.Auth, session: sess, mode: ModeLogin}
}

func (a *AuthScreen) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode switches forms without navigating away.
func (a *AuthScreen) SetMode(m Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
	a.message = ""
	a.fieldErrors = nil
}

func (a *AuthScreen) Message() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.message
}

func (a *AuthScreen) FieldErrors() []utils.FieldError {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]utils.FieldError(nil), a.fieldErrors...)
}

func (a *AuthScreen) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// begin validates form and marks the screen busy. The returned func ends
// the submission with the given message.
func (a *AuthScreen) begin(form any) (func(msg string), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loading {
		return nil, ErrBusy
	}
	if errs := utils.ValidateForm(form); errs != nil {
		a.fieldErrors = errs
		return nil, ErrInvalidForm
	}
	a.fieldErrors = nil
	a.message = ""
	a.loading = true
	return func(msg string) {
		a.mu.Lock()
		a.loading = false
		a.message = msg
		a.mu.Unlock()
	}, nil
}

func (a *AuthScreen) SubmitLogin(ctx context.Context, form models.LoginForm) error {
	done, err := a.begin(form)
	if err != nil {
		return err
	}
	res, err := a.auth.Login(ctx, form.Email, form.Password)
	if err == nil {
		err = a.session.Login(ctx, res.AccessToken)
	}
	if err != nil {
		done(api.Detail(err, "Login failed"))
		return err
	}
	done("")
	return nil
}

func (a *AuthScreen) SubmitRegister(ctx context.Context, form models.RegisterForm) error {
	done, err := a.begin(form)
	if err != nil {
		return err
	}
	res, err := a.auth.Register(ctx, form)
	if err == nil {
		err = a.session.Login(ctx, res.AccessToken)
	}
	if err != nil {
		done(api.Detail(err, "Registration failed"))
		return err
	}
	done("")
	return nil
}

func (a *AuthScreen) SubmitForgot(ctx context.Context, form models.ForgotPasswordForm) error {
	done, err := a.begin(form)
	if err != nil {
		return err
	}
	res, err := a.auth.ForgotPassword(ctx, form.Email)
	if err != nil {
		done(api.Detail(err, "Failed to send reset email"))
		return err
	}
	done(res.Message)
	return nil
}

func (a *AuthScreen) Render(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.mode {
	case ModeRegister:
		fmt.Fprintln(w, "Create your account")
	case ModeForgot:
		fmt.Fprintln(w, "Reset your password")
	default:
		fmt.Fprintln(w, "Sign in to your account")
	}
	if a.loading {
		fmt.Fprintln(w, "Working...")
	}
	if a.message != "" {
		fmt.Fprintln(w, a.message)
	}
	writeFieldErrors(w, a.fieldErrors)
}

// ResetPasswordScreen completes a reset with the token from the emailed
// link.
type ResetPasswordScreen struct {
	mu          sync.Mutex
	auth        *api.AuthAPI
	loading     bool
	done        bool
	message     string
	fieldErrors []utils.FieldError
}

func NewResetPasswordScreen(client *api.Client) *ResetPasswordScreen {
	return &ResetPasswordScreen{auth: client.Auth}
}

func (r *ResetPasswordScreen) Submit(ctx context.Context, form models.ResetPasswordForm) error {
	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		return ErrBusy
	}
	if errs := utils.ValidateForm(form); errs != nil {
		r.fieldErrors = errs
		r.mu.Unlock()
		return ErrInvalidForm
	}
	r.fieldErrors = nil
	r.message = ""
	r.loading = true
	r.mu.Unlock()

	res, err := r.auth.ResetPassword(ctx, form.Token, form.NewPassword)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.message = api.Detail(err, "Invalid or expired reset link")
		return err
	}
	r.done = true
	r.message = res.Message
	if r.message == "" {
		r.message = "Password reset successful"
	}
	return nil
}

func (r *ResetPasswordScreen) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// Done reports whether the password was changed.
func (r *ResetPasswordScreen) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *ResetPasswordScreen) FieldErrors() []utils.FieldError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]utils.FieldError(nil), r.fieldErrors...)
}
