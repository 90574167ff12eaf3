package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"student-connect/internal/database"
	"student-connect/internal/models"
	"student-connect/internal/responses"
	"student-connect/internal/utils"
)

func GetProfile(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, db)
		if !ok {
			return
		}
		responses.SendJSON(w, http.StatusOK, user.User)
	}
}

// profileUpdate validates the optional fields of a profile update.
type profileUpdate struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username" validate:"omitempty,min=3"`
	Bio      *string `json:"bio"`
}

func UpdateProfile(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, db)
		if !ok {
			return
		}

		var req profileUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if errs := utils.ValidateForm(req); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		patch := models.UserPatch{FullName: req.FullName, Username: req.Username, Bio: req.Bio}
		if _, err := db.UpdateUser(user.Email, patch); err != nil {
			if errors.Is(err, database.ErrUsernameTaken) {
				responses.SendErrorResponse(w, http.StatusBadRequest, "Username already taken")
				return
			}
			responses.SendErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}

		responses.SendMessage(w, "Profile updated successfully")
	}
}

func GetUserByUsername(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := mux.Vars(r)["username"]

		user, err := db.UserByUsername(username)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}

		public := user.User
		public.Email = ""
		responses.SendJSON(w, http.StatusOK, models.UserProfile{
			User:  public,
			Posts: db.PostsByAuthor(user.ID),
		})
	}
}
