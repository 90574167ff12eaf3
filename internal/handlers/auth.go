package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"student-connect/internal/database"
	"student-connect/internal/models"
	"student-connect/internal/responses"
	"student-connect/internal/services"
	"student-connect/internal/utils"
)

// ResetRequestedMessage is returned for every forgot-password request so
// that the response does not reveal which emails have accounts.
const ResetRequestedMessage = "If an account exists for that email, a reset link has been sent."

func sendToken(w http.ResponseWriter, jwtUtil *utils.JWTUtil, email string) {
	token, err := jwtUtil.GenerateToken(email)
	if err != nil {
		responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	responses.SendJSON(w, http.StatusOK, models.AuthResponse{AccessToken: token, TokenType: "bearer"})
}

func Login(db *database.Database, jwtUtil *utils.JWTUtil) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.LoginForm
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if errs := utils.ValidateForm(creds); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		user, err := db.UserByEmail(creds.Email)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
			responses.SendErrorResponse(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}

		sendToken(w, jwtUtil, user.Email)
	}
}

func Register(db *database.Database, jwtUtil *utils.JWTUtil) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form models.RegisterForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if errs := utils.ValidateForm(form); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		user, err := db.CreateUser(form.Email, form.Username, form.FullName, string(hashedPassword))
		switch {
		case errors.Is(err, database.ErrEmailTaken):
			responses.SendErrorResponse(w, http.StatusBadRequest, "Email already registered")
			return
		case errors.Is(err, database.ErrUsernameTaken):
			responses.SendErrorResponse(w, http.StatusBadRequest, "Username already taken")
			return
		case err != nil:
			log.Printf("Failed to create user %s: %v", form.Email, err)
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		log.Printf("Registered user %s (%s)", user.Username, user.ID)
		sendToken(w, jwtUtil, user.Email)
	}
}

func RateLimitMiddleware(limiter *rate.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				responses.SendErrorResponse(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next(w, r)
		}
	}
}

// ForgotPassword mails a reset link when the email belongs to a user. The
// response is the same either way.
func ForgotPassword(db *database.Database, jwtUtil *utils.JWTUtil, mailer services.Mailer, resetBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ForgotPasswordForm
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if errs := utils.ValidateForm(req); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		user, err := db.UserByEmail(req.Email)
		if err != nil {
			responses.SendMessage(w, ResetRequestedMessage)
			return
		}

		resetToken, err := jwtUtil.GenerateResetToken(user.Email)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to process reset request")
			return
		}
		link := resetBaseURL + "?token=" + url.QueryEscape(resetToken)
		if err := mailer.SendResetEmail(user.Email, link); err != nil {
			log.Printf("Failed to send reset email to %s: %v", user.Email, err)
		}

		responses.SendMessage(w, ResetRequestedMessage)
	}
}

func ResetPassword(db *database.Database, jwtUtil *utils.JWTUtil) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetPasswordForm
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if errs := utils.ValidateForm(req); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		claims, err := jwtUtil.ValidateResetToken(req.Token)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		if err := db.SetPassword(claims.Subject, string(hashedPassword)); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}

		responses.SendMessage(w, "Password reset successful")
	}
}
