package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"

	"student-connect/internal/models"
)

type UsersAPI struct{ c *Client }

// Profile returns the user the stored token belongs to.
func (u *UsersAPI) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := u.c.doJSON(ctx, http.MethodGet, "/api/user/profile", nil, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UsersAPI) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.MessageResponse, error) {
	var res models.MessageResponse
	if err := u.c.doJSON(ctx, http.MethodPut, "/api/user/profile", patch, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadProfilePicture forwards the file as-is. Size and type limits are
// enforced by the server.
func (u *UsersAPI) UploadProfilePicture(ctx context.Context, file models.Upload) (*models.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "file", file); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := u.c.newRequest(ctx, http.MethodPost, "/api/upload/profile-picture", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var res models.UploadResponse
	if err := u.c.do(req, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// Get fetches another user's public profile and posts.
func (u *UsersAPI) Get(ctx context.Context, username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	path := "/api/user/" + url.PathEscape(username)
	if err := u.c.doJSON(ctx, http.MethodGet, path, nil, &profile, nil); err != nil {
		return nil, err
	}
	return &profile, nil
}
