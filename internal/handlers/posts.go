package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"student-connect/internal/database"
	"student-connect/internal/models"
	"student-connect/internal/responses"
	"student-connect/internal/utils"
)

const maxPostUpload = 10 << 20

func CreatePost(db *database.Database, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, db)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxPostUpload+1<<20)
		if err := r.ParseMultipartForm(maxPostUpload); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid form data")
			return
		}

		form := models.PostForm{
			Title:    strings.TrimSpace(r.FormValue("title")),
			Content:  strings.TrimSpace(r.FormValue("content")),
			PostType: models.PostType(r.FormValue("post_type")),
			Tags:     r.FormValue("tags"),
			JobLink:  strings.TrimSpace(r.FormValue("job_link")),
		}
		if errs := utils.ValidateForm(form); errs != nil {
			responses.SendValidationError(w, errs)
			return
		}

		post := models.Post{
			Title:          form.Title,
			Content:        form.Content,
			PostType:       form.PostType,
			Tags:           models.ParseTags(form.Tags),
			JobLink:        form.JobLink,
			AuthorID:       user.ID,
			AuthorUsername: user.Username,
			AuthorName:     user.FullName,
		}

		if len(r.MultipartForm.File["file"]) > 0 {
			name, status, msg := storeFormFile(r, db, "file", maxPostUpload, nil)
			if status != 0 {
				responses.SendErrorResponse(w, status, msg)
				return
			}
			post.FileURL = uploadURL(publicURL, name)
		}

		responses.SendJSON(w, http.StatusOK, db.CreatePost(post))
	}
}

func ListPosts(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := models.ListParams{
			PostType: models.PostType(q.Get("post_type")),
			Search:   q.Get("search"),
		}
		for key, dst := range map[string]*int{"skip": &params.Skip, "limit": &params.Limit} {
			raw := q.Get(key)
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				responses.SendValidationError(w, []utils.FieldError{{Field: key, Message: key + " must be a non-negative integer"}})
				return
			}
			*dst = n
		}

		posts, err := db.ListPosts(params)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid post type")
			return
		}
		responses.SendJSON(w, http.StatusOK, posts)
	}
}

// GetPost answers a malformed id with 400 and an unknown one with 404.
func GetPost(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if _, err := uuid.Parse(id); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid post ID")
			return
		}

		post, err := db.PostByID(id)
		if err != nil {
			responses.SendErrorResponse(w, http.StatusNotFound, "Post not found")
			return
		}
		responses.SendJSON(w, http.StatusOK, post)
	}
}

func AddComment(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, db)
		if !ok {
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Comment cannot be empty")
			return
		}

		comment, err := db.AddComment(models.Comment{
			Content:        content,
			PostID:         mux.Vars(r)["id"],
			AuthorID:       user.ID,
			AuthorUsername: user.Username,
			AuthorName:     user.FullName,
		})
		if errors.Is(err, database.ErrNotFound) {
			responses.SendErrorResponse(w, http.StatusNotFound, "Post not found")
			return
		}
		if err != nil {
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to add comment")
			return
		}
		responses.SendJSON(w, http.StatusOK, comment)
	}
}
