package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"

	"student-connect/internal/database"
	"student-connect/internal/models"
	"student-connect/internal/responses"
)

const maxPictureUpload = 5 << 20

func uploadURL(publicURL, name string) string {
	return strings.TrimRight(publicURL, "/") + "/uploads/" + name
}

// storeFormFile reads one multipart file, checks its sniffed type against
// accept (nil accepts anything) and stores it. A non-zero status means the
// upload was rejected with msg.
func storeFormFile(r *http.Request, db *database.Database, field string, limit int64, accept func(*mimetype.MIME) bool) (name string, status int, msg string) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", http.StatusBadRequest, "No file uploaded"
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", http.StatusBadRequest, "Failed to read file"
	}
	if int64(len(data)) > limit {
		return "", http.StatusRequestEntityTooLarge, "File too large"
	}

	mtype := mimetype.Detect(data)
	if accept != nil && !accept(mtype) {
		return "", http.StatusBadRequest, "File must be an image"
	}
	return db.SaveUpload(data, mtype.String(), mtype.Extension()), 0, ""
}

func isImage(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/")
}

func UploadProfilePicture(db *database.Database, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, db)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxPictureUpload+1<<20)
		if err := r.ParseMultipartForm(maxPictureUpload); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid form data")
			return
		}

		name, status, msg := storeFormFile(r, db, "file", maxPictureUpload, isImage)
		if status != 0 {
			responses.SendErrorResponse(w, status, msg)
			return
		}

		url := uploadURL(publicURL, name)
		if _, err := db.UpdateUser(user.Email, models.UserPatch{ProfilePicture: &url}); err != nil {
			responses.SendErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}
		responses.SendJSON(w, http.StatusOK, models.UploadResponse{URL: url})
	}
}

func ServeUpload(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upload, err := db.Upload(mux.Vars(r)["name"])
		if err != nil {
			responses.SendErrorResponse(w, http.StatusNotFound, "File not found")
			return
		}
		w.Header().Set("Content-Type", upload.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(upload.Data)))
		w.Write(upload.Data)
	}
}
