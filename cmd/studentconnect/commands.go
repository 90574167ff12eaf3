package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"student-connect/internal/models"
	"student-connect/internal/views"
)

type command struct {
	help string
	auth bool
	run  func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":           {help: "sign in with email and password", run: (*app).login},
	"register":        {help: "create an account and sign in", run: (*app).register},
	"forgot-password": {help: "request a password reset link", run: (*app).forgotPassword},
	"reset-password":  {help: "set a new password with a reset token", run: (*app).resetPassword},
	"logout":          {help: "forget the stored session", run: (*app).logout},
	"status":          {help: "show who is signed in", run: (*app).status},
	"posts":           {help: "list posts [-type notes|jobs|threads] [-search text]", run: (*app).posts},
	"post":            {help: "show a post and its comments: post <id>", run: (*app).post},
	"comment":         {help: "comment on a post: comment <id> <text>", auth: true, run: (*app).comment},
	"create-post":     {help: "create a post", auth: true, run: (*app).createPost},
	"profile":         {help: "show your profile", auth: true, run: (*app).profile},
	"edit-profile":    {help: "change full name, username or bio", auth: true, run: (*app).editProfile},
	"upload-picture":  {help: "set your profile picture: upload-picture <file>", auth: true, run: (*app).uploadPicture},
	"user":            {help: "show another user's profile: user <username>", run: (*app).user},
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// prompt reads a line from the app's input when value is empty.
func (a *app) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := a.prompt("Password", *password)
	if err != nil {
		return err
	}

	screen := views.NewAuthScreen(a.client, a.session)
	if err := screen.SubmitLogin(ctx, models.LoginForm{Email: *email, Password: pw}); err != nil {
		screen.Render(a.out)
		return err
	}
	return a.status(ctx, nil)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var form models.RegisterForm
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Username, "username", "", "username, at least 3 characters")
	fs.StringVar(&form.FullName, "full-name", "", "full name")
	fs.StringVar(&form.Password, "password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if form.Password, err = a.prompt("Password", form.Password); err != nil {
		return err
	}

	screen := views.NewAuthScreen(a.client, a.session)
	screen.SetMode(views.ModeRegister)
	if err := screen.SubmitRegister(ctx, form); err != nil {
		screen.Render(a.out)
		return err
	}
	return a.status(ctx, nil)
}

func (a *app) forgotPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("forgot-password")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	screen := views.NewAuthScreen(a.client, a.session)
	screen.SetMode(views.ModeForgot)
	err := screen.SubmitForgot(ctx, models.ForgotPasswordForm{Email: *email})
	screen.Render(a.out)
	return err
}

func (a *app) resetPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("reset-password")
	token := fs.String("token", "", "token from the reset link")
	password := fs.String("password", "", "new password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := a.prompt("New password", *password)
	if err != nil {
		return err
	}

	screen := views.NewResetPasswordScreen(a.client)
	err = screen.Submit(ctx, models.ResetPasswordForm{Token: *token, NewPassword: pw})
	fmt.Fprintln(a.out, screen.Message())
	for _, fe := range screen.FieldErrors() {
		fmt.Fprintf(a.out, "  - %s\n", fe.Message)
	}
	return err
}

func (a *app) logout(ctx context.Context, args []string) error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	user, ok := a.session.User()
	if !ok {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "Signed in as %s (@%s)\n", user.DisplayName(), user.Username)
	if exp, ok := a.session.TokenExpiry(); ok {
		fmt.Fprintf(a.out, "Session expires %s\n", exp.Local().Format("Jan 2, 2006 03:04 PM"))
	}
	return nil
}

func (a *app) posts(ctx context.Context, args []string) error {
	fs := newFlagSet("posts")
	typ := fs.String("type", string(views.FilterAll), "all, notes, jobs or threads")
	search := fs.String("search", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := views.ParseFilter(*typ)
	if err != nil {
		return err
	}

	listing := views.NewPostsListing(a.client)
	err = listing.SetQuery(ctx, filter, *search)
	listing.Render(a.out)
	return err
}

func (a *app) post(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: post <id>")
	}
	detail := views.NewPostDetail(a.client, a.session)
	err := detail.Load(ctx, args[0])
	detail.Render(a.out)
	return err
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: comment <id> <text>")
	}
	detail := views.NewPostDetail(a.client, a.session)
	if err := detail.Load(ctx, args[0]); err != nil {
		detail.Render(a.out)
		return err
	}
	detail.SetDraft(strings.Join(args[1:], " "))
	_, err := detail.SubmitComment(ctx)
	detail.Render(a.out)
	return err
}

func readUpload(path string) (*models.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &models.Upload{Filename: filepath.Base(path), Data: data}, nil
}

func (a *app) createPost(ctx context.Context, args []string) error {
	fs := newFlagSet("create-post")
	var form models.PostForm
	typ := fs.String("type", string(models.PostNotes), "notes, jobs or threads")
	fs.StringVar(&form.Title, "title", "", "post title")
	fs.StringVar(&form.Content, "content", "", "post body")
	fs.StringVar(&form.Tags, "tags", "", "comma separated tags")
	fs.StringVar(&form.JobLink, "job-link", "", "application link (jobs)")
	file := fs.String("file", "", "attachment path (notes)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.PostType = models.PostType(*typ)
	if *file != "" {
		upload, err := readUpload(*file)
		if err != nil {
			return err
		}
		form.File = upload
	}

	listing := views.NewPostsListing(a.client)
	post, err := listing.Create(ctx, form)
	if err != nil {
		fmt.Fprintln(a.out, listing.CreateMessage())
		for _, fe := range listing.CreateErrors() {
			fmt.Fprintf(a.out, "  - %s\n", fe.Message)
		}
		return err
	}
	fmt.Fprintf(a.out, "Created post %s\n", post.ID)
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	views.NewProfileScreen(a.client, a.session).Render(a.out)
	return nil
}

func (a *app) editProfile(ctx context.Context, args []string) error {
	fs := newFlagSet("edit-profile")
	fullName := fs.String("full-name", "", "new full name")
	username := fs.String("username", "", "new username")
	bio := fs.String("bio", "", "new bio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	screen := views.NewProfileScreen(a.client, a.session)
	if err := screen.Edit(); err != nil {
		return err
	}
	form := screen.Form()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "full-name":
			form.FullName = *fullName
		case "username":
			form.Username = *username
		case "bio":
			form.Bio = *bio
		}
	})
	if err := screen.SetForm(form); err != nil {
		return err
	}
	err := screen.Save(ctx)
	screen.Render(a.out)
	return err
}

func (a *app) uploadPicture(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: upload-picture <file>")
	}
	upload, err := readUpload(args[0])
	if err != nil {
		return err
	}
	screen := views.NewProfileScreen(a.client, a.session)
	_, err = screen.UploadPicture(ctx, *upload)
	screen.Render(a.out)
	return err
}

func (a *app) user(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: user <username>")
	}
	screen := views.NewUserProfileScreen(a.client)
	err := screen.Load(ctx, args[0])
	screen.Render(a.out)
	return err
}
