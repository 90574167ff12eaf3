package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"student-connect/internal/models"
	"student-connect/internal/storage"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := &storage.MemoryStorage{}
	if token != "" {
		_ = tokens.SaveToken(token)
	}
	return NewClient(srv.URL, tokens)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerHeaderAttachedOnlyWithToken(t *testing.T) {
	var got []string
	h := func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []models.Post{})
	}

	anon := newTestClient(t, "", h)
	if _, err := anon.Posts.List(context.Background(), models.ListParams{}); err != nil {
		t.Fatal(err)
	}
	authed := newTestClient(t, "T", h)
	if _, err := authed.Posts.List(context.Background(), models.ListParams{}); err != nil {
		t.Fatal(err)
	}

	if got[0] != "" {
		t.Errorf("anonymous request sent Authorization %q", got[0])
	}
	if got[1] != "Bearer T" {
		t.Errorf("Authorization = %q, want %q", got[1], "Bearer T")
	}
}

func TestListQueryOnlyNonDefaults(t *testing.T) {
	filters := []models.PostType{"all", models.PostNotes, models.PostJobs, models.PostThreads}
	for _, f := range filters {
		for _, search := range []string{"", "calc"} {
			q := ListQuery(models.ListParams{PostType: f, Search: search})

			_, hasType := q["post_type"]
			if wantType := f != "all"; hasType != wantType {
				t.Errorf("filter %q: post_type present = %v", f, hasType)
			}
			if hasType && q.Get("post_type") != string(f) {
				t.Errorf("filter %q: post_type = %q", f, q.Get("post_type"))
			}
			_, hasSearch := q["search"]
			if hasSearch != (search != "") {
				t.Errorf("search %q: present = %v", search, hasSearch)
			}
			if _, ok := q["skip"]; ok {
				t.Error("skip sent with zero value")
			}
			if _, ok := q["limit"]; ok {
				t.Error("limit sent with zero value")
			}
		}
	}

	q := ListQuery(models.ListParams{Skip: 20, Limit: 10})
	if q.Get("skip") != "20" || q.Get("limit") != "10" {
		t.Errorf("paging params = %v", q)
	}
}

func TestListSendsQuery(t *testing.T) {
	var query url.Values
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/posts" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		query = r.URL.Query()
		writeJSON(w, http.StatusOK, []models.Post{{ID: "2"}, {ID: "1"}})
	})

	posts, err := c.Posts.List(context.Background(), models.ListParams{PostType: models.PostJobs, Search: "intern"})
	if err != nil {
		t.Fatal(err)
	}
	if query.Get("post_type") != "jobs" || query.Get("search") != "intern" {
		t.Errorf("query = %v", query)
	}
	if len(posts) != 2 || posts[0].ID != "2" {
		t.Errorf("server order not kept: %+v", posts)
	}
}

func TestCreatePostMultipart(t *testing.T) {
	c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("tags"); got != "math,physics,chem" {
			t.Errorf("tags = %q", got)
		}
		if got := r.FormValue("post_type"); got != "notes" {
			t.Errorf("post_type = %q", got)
		}
		if _, ok := r.MultipartForm.Value["job_link"]; ok {
			t.Error("empty job_link was sent")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Filename != "notes.txt" || string(body) != "hello" {
			t.Errorf("file = %q %q", hdr.Filename, body)
		}
		if ct := hdr.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("file content type = %q", ct)
		}
		writeJSON(w, http.StatusOK, models.Post{ID: "p1", Title: r.FormValue("title"), Tags: strings.Split(r.FormValue("tags"), ",")})
	})

	form := models.PostForm{
		Title: "Week 1", Content: "Limits", PostType: models.PostNotes,
		Tags: "math, physics ,  chem", File: &models.Upload{Filename: "notes.txt", Data: []byte("hello")},
	}
	post, err := c.Posts.Create(context.Background(), form.ToNewPost())
	if err != nil {
		t.Fatal(err)
	}
	if post.ID != "p1" || len(post.Tags) != 3 {
		t.Errorf("post = %+v", post)
	}
}

func TestCreatePostRequiresTitleAndContent(t *testing.T) {
	called := false
	c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.Posts.Create(context.Background(), models.NewPost{Title: "  ", Content: "x", PostType: models.PostThreads})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if called {
		t.Error("request sent for invalid post")
	}
}

func TestCreatePostNormalizesTags(t *testing.T) {
	var got string
	c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) {
		got = r.FormValue("tags")
		writeJSON(w, http.StatusOK, models.Post{ID: "p1"})
	})

	post := models.NewPost{Title: "t", Content: "c", PostType: models.PostThreads, Tags: []string{" math", "", "physics ", "  "}}
	if _, err := c.Posts.Create(context.Background(), post); err != nil {
		t.Fatal(err)
	}
	if got != "math,physics" {
		t.Errorf("tags = %q, want %q", got, "math,physics")
	}
}

func TestAddComment(t *testing.T) {
	c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts/p1/comments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["content"] != "nice" || in["post_id"] != "p1" {
			t.Errorf("body = %v", in)
		}
		writeJSON(w, http.StatusOK, models.Comment{ID: "c1", Content: in["content"], PostID: in["post_id"]})
	})

	cm, err := c.Posts.AddComment(context.Background(), "p1", "nice")
	if err != nil || cm.ID != "c1" {
		t.Fatalf("AddComment = %+v, %v", cm, err)
	}
	if _, err := c.Posts.AddComment(context.Background(), "p1", " \t "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank comment err = %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(c *Client) error
		kind   error
		detail string
	}{
		{"login 401", 401, `{"detail":"Invalid credentials"}`, func(c *Client) error {
			_, err := c.Auth.Login(context.Background(), "a@b.com", "x")
			return err
		}, ErrAuth, "Invalid credentials"},
		{"register 400", 400, `{"detail":"User already exists"}`, func(c *Client) error {
			_, err := c.Auth.Register(context.Background(), models.RegisterForm{})
			return err
		}, ErrValidation, "User already exists"},
		{"register 422 list", 422, `{"detail":[{"msg":"value is not a valid email address"}]}`, func(c *Client) error {
			_, err := c.Auth.Register(context.Background(), models.RegisterForm{})
			return err
		}, ErrValidation, "value is not a valid email address"},
		{"reset 401", 401, `{"detail":"Invalid or expired token"}`, func(c *Client) error {
			_, err := c.Auth.ResetPassword(context.Background(), "tok", "secret1")
			return err
		}, ErrInvalidToken, "Invalid or expired token"},
		{"profile 401", 401, `{"detail":"Invalid token"}`, func(c *Client) error {
			_, err := c.Users.Profile(context.Background())
			return err
		}, ErrAuth, "Invalid token"},
		{"user 404", 404, `{"detail":"User not found"}`, func(c *Client) error {
			_, err := c.Users.Get(context.Background(), "ghost")
			return err
		}, ErrNotFound, "User not found"},
		{"post 400", 400, `{"detail":"Invalid post ID"}`, func(c *Client) error {
			_, err := c.Posts.Get(context.Background(), "zzz")
			return err
		}, ErrNotFound, "Invalid post ID"},
		{"message envelope", 409, `{"success":false,"message":"Username already taken"}`, func(c *Client) error {
			_, err := c.Users.UpdateProfile(context.Background(), models.UserPatch{})
			return err
		}, ErrValidation, "Username already taken"},
		{"server 500", 500, `oops`, func(c *Client) error {
			_, err := c.Posts.List(context.Background(), models.ListParams{})
			return err
		}, ErrServer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := tt.call(c)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if got := Detail(err, ""); got != tt.detail {
				t.Errorf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, &storage.MemoryStorage{})
	_, err := c.Posts.List(context.Background(), models.ListParams{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if got := Detail(err, "fallback"); got != "fallback" {
		t.Errorf("detail = %q", got)
	}
}

func TestForgotPasswordNeverLeaks(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
	})
	res, err := c.Auth.ForgotPassword(context.Background(), "nobody@b.com")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Message != GenericResetMessage {
		t.Errorf("message = %q", res.Message)
	}

	ok := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Reset link sent to email"})
	})
	res, err = ok.Auth.ForgotPassword(context.Background(), "a@b.com")
	if err != nil || res.Message != "Reset link sent to email" {
		t.Errorf("got %+v, %v", res, err)
	}
}

func TestUploadProfilePictureSniffsType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	c := newTestClient(t, "T", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			return
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q", ct)
		}
		writeJSON(w, http.StatusOK, models.UploadResponse{URL: "https://cdn/x.png"})
	})
	res, err := c.Users.UploadProfilePicture(context.Background(), models.Upload{Filename: "me.png", Data: png})
	if err != nil || res.URL != "https://cdn/x.png" {
		t.Fatalf("got %+v, %v", res, err)
	}
}
