package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"student-connect/internal/api"
	"student-connect/internal/database"
	"student-connect/internal/handlers"
	"student-connect/internal/models"
	"student-connect/internal/services"
	"student-connect/internal/session"
	"student-connect/internal/storage"
	"student-connect/internal/utils"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stub struct {
	srv       *httptest.Server
	outbox    *services.Outbox
	router    http.Handler
	onRequest func(*http.Request)
}

func newStub(t *testing.T) *stub {
	t.Helper()
	s := &stub{outbox: &services.Outbox{}}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.onRequest != nil {
			s.onRequest(r)
		}
		s.router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.srv.Close)

	s.router = handlers.NewRouter(handlers.Deps{
		DB:           database.NewDatabase(),
		JWT:          utils.NewJWTUtil("test-secret", time.Hour, time.Hour),
		Mailer:       s.outbox,
		PublicURL:    s.srv.URL,
		ResetBaseURL: "http://app.test/reset-password",
	})
	return s
}

func (s *stub) client() *api.Client {
	return api.NewClient(s.srv.URL, &storage.MemoryStorage{})
}

func register(t *testing.T, c *api.Client, email, username string) string {
	t.Helper()
	res, err := c.Auth.Register(context.Background(), models.RegisterForm{
		Email: email, Username: username, Password: "secret1", FullName: "A B",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return res.AccessToken
}

func TestRegisterThenBearerOnListing(t *testing.T) {
	stub := newStub(t)

	var seen []string
	stub.onRequest = func(r *http.Request) {
		if r.URL.Path == "/api/posts" && r.Method == http.MethodGet {
			seen = append(seen, r.Header.Get("Authorization"))
		}
	}

	tokens := &storage.MemoryStorage{}
	client := api.NewClient(stub.srv.URL, tokens)
	sess := session.New(tokens, client.Users)
	ctx := context.Background()

	res, err := client.Auth.Register(ctx, models.RegisterForm{
		Email: "a@b.com", Username: "abc", Password: "secret1", FullName: "A B",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("no token issued")
	}
	if err := sess.Login(ctx, res.AccessToken); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !sess.Authenticated() {
		t.Fatal("session not authenticated")
	}
	if u, _ := sess.User(); u.Username != "abc" || u.FullName != "A B" {
		t.Errorf("user = %+v", u)
	}
	if exp, ok := sess.TokenExpiry(); !ok || exp.Before(time.Now()) {
		t.Errorf("token expiry = %v, %v", exp, ok)
	}

	if _, err := client.Posts.List(ctx, models.ListParams{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(seen) != 1 || seen[0] != "Bearer "+res.AccessToken {
		t.Errorf("Authorization = %q", seen)
	}
}

func TestRegisterDuplicateAndLogin(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	ctx := context.Background()
	register(t, c, "a@b.com", "abc")

	_, err := c.Auth.Register(ctx, models.RegisterForm{Email: "a@b.com", Username: "other", Password: "secret1", FullName: "X"})
	if !errors.Is(err, api.ErrValidation) || api.Detail(err, "") != "Email already registered" {
		t.Errorf("duplicate email err = %v", err)
	}

	_, err = c.Auth.Register(ctx, models.RegisterForm{Email: "bad", Username: "ab", Password: "1", FullName: "X"})
	if !errors.Is(err, api.ErrValidation) || !strings.Contains(api.Detail(err, ""), "Invalid email") {
		t.Errorf("invalid register err = %v", err)
	}

	if _, err := c.Auth.Login(ctx, "a@b.com", "wrong"); !errors.Is(err, api.ErrAuth) {
		t.Errorf("wrong password err = %v", err)
	}
	res, err := c.Auth.Login(ctx, "a@b.com", "secret1")
	if err != nil || res.TokenType != "bearer" {
		t.Fatalf("Login = %+v, %v", res, err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	ctx := context.Background()
	register(t, c, "a@b.com", "abc")

	for _, email := range []string{"nobody@b.com", "a@b.com"} {
		res, err := c.Auth.ForgotPassword(ctx, email)
		if err != nil {
			t.Fatalf("ForgotPassword(%s): %v", email, err)
		}
		if res.Message != handlers.ResetRequestedMessage {
			t.Errorf("message for %s = %q", email, res.Message)
		}
	}

	sent := stub.outbox.Sent()
	if len(sent) != 1 || sent[0].To != "a@b.com" {
		t.Fatalf("sent = %+v", sent)
	}
	link, err := url.Parse(sent[0].Link)
	if err != nil {
		t.Fatal(err)
	}
	token := link.Query().Get("token")

	if _, err := c.Auth.ResetPassword(ctx, "garbage", "newpass1"); !errors.Is(err, api.ErrInvalidToken) {
		t.Errorf("bad token err = %v", err)
	}
	if _, err := c.Auth.ResetPassword(ctx, token, "newpass1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := c.Auth.Login(ctx, "a@b.com", "secret1"); !errors.Is(err, api.ErrAuth) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := c.Auth.Login(ctx, "a@b.com", "newpass1"); err != nil {
		t.Errorf("new password: %v", err)
	}
}

func TestResetTokenIsNotAnAccessToken(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	register(t, c, "a@b.com", "abc")
	if _, err := c.Auth.ForgotPassword(context.Background(), "a@b.com"); err != nil {
		t.Fatal(err)
	}
	link, _ := url.Parse(stub.outbox.Sent()[0].Link)

	_ = c.Tokens.SaveToken(link.Query().Get("token"))
	if _, err := c.Users.Profile(context.Background()); !errors.Is(err, api.ErrAuth) {
		t.Errorf("reset token accepted as bearer: %v", err)
	}
}

func TestPostsLifecycle(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	ctx := context.Background()
	_ = c.Tokens.SaveToken(register(t, c, "a@b.com", "abc"))

	notes, err := c.Posts.Create(ctx, models.NewPost{
		Title: "Calc notes", Content: "Limits", PostType: models.PostNotes,
		Tags: []string{"math", "physics", "chem"},
		File: &models.Upload{Filename: "notes.pdf", Data: []byte("%PDF-1.4\n%...")},
	})
	if err != nil {
		t.Fatalf("Create notes: %v", err)
	}
	if strings.Join(notes.Tags, ",") != "math,physics,chem" {
		t.Errorf("tags = %q", notes.Tags)
	}
	if !strings.HasPrefix(notes.FileURL, stub.srv.URL+"/uploads/") || !strings.HasSuffix(notes.FileURL, ".pdf") {
		t.Errorf("file url = %q", notes.FileURL)
	}
	if notes.AuthorUsername != "abc" || notes.CreatedAt == "" {
		t.Errorf("post = %+v", notes)
	}

	job, err := c.Posts.Create(ctx, models.NewPost{
		Title: "Intern", Content: "Apply", PostType: models.PostJobs, JobLink: "https://jobs.test/1",
	})
	if err != nil {
		t.Fatalf("Create job: %v", err)
	}

	all, err := c.Posts.List(ctx, models.ListParams{})
	if err != nil || len(all) != 2 || all[0].ID != job.ID {
		t.Fatalf("List = %+v, %v; want newest first", all, err)
	}
	jobs, _ := c.Posts.List(ctx, models.ListParams{PostType: models.PostJobs})
	if len(jobs) != 1 || jobs[0].JobLink != "https://jobs.test/1" {
		t.Errorf("jobs = %+v", jobs)
	}
	found, _ := c.Posts.List(ctx, models.ListParams{Search: "PHYSICS"})
	if len(found) != 1 || found[0].ID != notes.ID {
		t.Errorf("search = %+v", found)
	}
	for _, q := range []string{"abc", "A B"} {
		byAuthor, err := c.Posts.List(ctx, models.ListParams{Search: q})
		if err != nil || len(byAuthor) != 2 {
			t.Errorf("search by author %q = %d posts, %v", q, len(byAuthor), err)
		}
	}
	if byContent, _ := c.Posts.List(ctx, models.ListParams{Search: "Limits"}); len(byContent) != 0 {
		t.Errorf("content matched search: %+v", byContent)
	}
	page, _ := c.Posts.List(ctx, models.ListParams{Skip: 1, Limit: 1})
	if len(page) != 1 || page[0].ID != notes.ID {
		t.Errorf("page = %+v", page)
	}

	first, err := c.Posts.AddComment(ctx, notes.ID, "first")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := c.Posts.AddComment(ctx, notes.ID, "second"); err != nil {
		t.Fatal(err)
	}
	got, err := c.Posts.Get(ctx, notes.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[0].ID != first.ID || got.Comments[1].Content != "second" {
		t.Errorf("comments = %+v", got.Comments)
	}

	if _, err := c.Posts.Get(ctx, "not-an-id"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("malformed id err = %v", err)
	}
	if _, err := c.Posts.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("unknown id err = %v", err)
	}
}

func TestCreatePostRequiresAuth(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	_, err := c.Posts.Create(context.Background(), models.NewPost{Title: "t", Content: "c", PostType: models.PostThreads})
	if !errors.Is(err, api.ErrAuth) {
		t.Errorf("err = %v", err)
	}
}

func TestProfileUpdateAndPublicProfile(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	ctx := context.Background()
	_ = c.Tokens.SaveToken(register(t, c, "a@b.com", "abc"))
	register(t, stub.client(), "z@b.com", "zed")

	bio := "Physics major"
	if _, err := c.Users.UpdateProfile(ctx, models.UserPatch{Bio: &bio}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	taken := "zed"
	if _, err := c.Users.UpdateProfile(ctx, models.UserPatch{Username: &taken}); !errors.Is(err, api.ErrValidation) {
		t.Errorf("taken username err = %v", err)
	}

	me, err := c.Users.Profile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if me.Bio != bio || me.FullName != "A B" || me.Username != "abc" {
		t.Errorf("profile = %+v", me)
	}

	if _, err := c.Posts.Create(ctx, models.NewPost{Title: "t", Content: "c", PostType: models.PostThreads}); err != nil {
		t.Fatal(err)
	}
	public, err := stub.client().Users.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if public.Email != "" {
		t.Errorf("public profile leaks email %q", public.Email)
	}
	if len(public.Posts) != 1 {
		t.Errorf("posts = %d", len(public.Posts))
	}
	if _, err := c.Users.Get(ctx, "ghost"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("ghost err = %v", err)
	}
}

func TestProfilePictureUpload(t *testing.T) {
	stub := newStub(t)
	c := stub.client()
	ctx := context.Background()
	_ = c.Tokens.SaveToken(register(t, c, "a@b.com", "abc"))

	if _, err := c.Users.UploadProfilePicture(ctx, models.Upload{Filename: "a.txt", Data: []byte("hello")}); !errors.Is(err, api.ErrValidation) {
		t.Errorf("text upload err = %v", err)
	}

	res, err := c.Users.UploadProfilePicture(ctx, models.Upload{Filename: "me.png", Data: pngHeader})
	if err != nil {
		t.Fatalf("UploadProfilePicture: %v", err)
	}
	me, _ := c.Users.Profile(ctx)
	if me.ProfilePicture != res.URL {
		t.Errorf("picture = %q, url = %q", me.ProfilePicture, res.URL)
	}

	resp, err := http.Get(res.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" || !bytes.Equal(body.Bytes(), pngHeader) {
		t.Errorf("served %d %q %d bytes", resp.StatusCode, resp.Header.Get("Content-Type"), body.Len())
	}
}

func TestValidationBodyShape(t *testing.T) {
	stub := newStub(t)
	resp, err := http.Post(stub.srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"email":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Detail []struct {
			Loc []string `json:"loc"`
			Msg string   `json:"msg"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Detail) != 2 || body.Detail[0].Loc[1] != "email" || body.Detail[1].Msg != "Password is required" {
		t.Errorf("detail = %+v", body.Detail)
	}
}
