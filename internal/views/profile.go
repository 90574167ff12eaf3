package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"student-connect/internal/api"
	"student-connect/internal/models"
	"student-connect/internal/session"
	"student-connect/internal/utils"
)

// ProfileScreen is the signed-in user's own profile. The user shown always
// comes from the session; the screen only owns the edit form.
type ProfileScreen struct {
	mu          sync.Mutex
	users       *api.UsersAPI
	session     *session.Session
	editing     bool
	form        models.ProfileForm
	saving      bool
	uploading   bool
	message     string
	fieldErrors []utils.FieldError
}

func NewProfileScreen(client *api.Client, sess *session.Session) *ProfileScreen {
	return &ProfileScreen{users: client.Users, session: sess}
}

// Edit enters edit mode with the form seeded from the current user.
func (p *ProfileScreen) Edit() error {
	user, ok := p.session.User()
	if !ok {
		return ErrNotSignedIn
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editing = true
	p.form = models.ProfileFormFrom(user)
	p.message = ""
	p.fieldErrors = nil
	return nil
}

// Cancel leaves edit mode and discards the edits.
func (p *ProfileScreen) Cancel() {
	user, _ := p.session.User()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editing = false
	p.form = models.ProfileFormFrom(user)
	p.fieldErrors = nil
}

func (p *ProfileScreen) SetForm(form models.ProfileForm) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.editing {
		return ErrNotEditing
	}
	p.form = form
	return nil
}

func (p *ProfileScreen) Form() models.ProfileForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

func (p *ProfileScreen) Editing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editing
}

func (p *ProfileScreen) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

func (p *ProfileScreen) FieldErrors() []utils.FieldError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]utils.FieldError(nil), p.fieldErrors...)
}

// Save sends the form and, once the server accepts it, merges it into the
// session user and leaves edit mode.
func (p *ProfileScreen) Save(ctx context.Context) error {
	if !p.session.Authenticated() {
		return ErrNotSignedIn
	}
	p.mu.Lock()
	switch {
	case !p.editing:
		p.mu.Unlock()
		return ErrNotEditing
	case p.saving:
		p.mu.Unlock()
		return ErrBusy
	}
	if errs := utils.ValidateForm(p.form); errs != nil {
		p.fieldErrors = errs
		p.mu.Unlock()
		return ErrInvalidForm
	}
	p.fieldErrors = nil
	p.message = ""
	p.saving = true
	patch := p.form.Patch()
	p.mu.Unlock()

	_, err := p.users.UpdateProfile(ctx, patch)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.saving = false
	if err != nil {
		p.message = api.Detail(err, "Failed to update profile")
		return err
	}
	p.session.UpdateUser(patch)
	p.editing = false
	p.message = "Profile updated"
	return nil
}

// UploadPicture uploads a new profile picture. Files that do not sniff as
// an image are rejected before any request is made.
func (p *ProfileScreen) UploadPicture(ctx context.Context, file models.Upload) (string, error) {
	if !p.session.Authenticated() {
		return "", ErrNotSignedIn
	}
	p.mu.Lock()
	if p.uploading {
		p.mu.Unlock()
		return "", ErrBusy
	}
	if !strings.HasPrefix(mimetype.Detect(file.Data).String(), "image/") {
		p.message = "Please select an image file"
		p.mu.Unlock()
		return "", ErrNotImage
	}
	p.message = ""
	p.uploading = true
	p.mu.Unlock()

	res, err := p.users.UploadProfilePicture(ctx, file)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploading = false
	if err != nil {
		p.message = api.Detail(err, "Failed to upload picture")
		return "", err
	}
	url := res.URL
	p.session.UpdateUser(models.UserPatch{ProfilePicture: &url})
	p.message = "Profile picture updated"
	return url, nil
}

func (p *ProfileScreen) Render(w io.Writer) {
	user, ok := p.session.User()
	p.mu.Lock()
	defer p.mu.Unlock()

	if !ok {
		fmt.Fprintln(w, "Sign in to see your profile.")
		return
	}
	if p.editing {
		fmt.Fprintln(w, "Edit profile")
		fmt.Fprintf(w, "  Full name: %s\n  Username:  %s\n  Bio:       %s\n", p.form.FullName, p.form.Username, p.form.Bio)
		writeFieldErrors(w, p.fieldErrors)
	} else {
		fmt.Fprintf(w, "%s (@%s)\n", user.DisplayName(), user.Username)
		if user.Email != "" {
			fmt.Fprintln(w, user.Email)
		}
		if user.Bio != "" {
			fmt.Fprintln(w, user.Bio)
		}
		if user.ProfilePicture != "" {
			fmt.Fprintf(w, "Picture: %s\n", user.ProfilePicture)
		}
	}
	if p.message != "" {
		fmt.Fprintln(w, p.message)
	}
}
