package database

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"student-connect/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidPostFilter = errors.New("invalid post type")
)

// DefaultPostLimit applies when a listing does not ask for a limit.
const DefaultPostLimit = 20

// timeLayout has no zone, like the production API's timestamps.
const timeLayout = "2006-01-02T15:04:05.000000"

// UserRecord is a stored user. The hash never leaves the package through
// the API handlers.
type UserRecord struct {
	models.User
	PasswordHash string
}

// Upload is a stored file served under /uploads/{name}.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Database is the stub backend's in-memory store. Posts keep insertion
// order so that listing newest first is a reverse walk.
type Database struct {
	mu       sync.RWMutex
	users    map[string]*UserRecord
	posts    []models.Post
	comments map[string][]models.Comment
	uploads  map[string]Upload
	now      func() time.Time
}

func NewDatabase() *Database {
	return &Database{
		users:    make(map[string]*UserRecord),
		comments: make(map[string][]models.Comment),
		uploads:  make(map[string]Upload),
		now:      time.Now,
	}
}

func (d *Database) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

func (d *Database) CreateUser(email, username, fullName, passwordHash string) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return models.User{}, ErrEmailTaken
		}
		if u.Username == username {
			return models.User{}, ErrUsernameTaken
		}
	}
	rec := &UserRecord{
		User: models.User{
			ID:       uuid.NewString(),
			Email:    email,
			Username: username,
			FullName: fullName,
		},
		PasswordHash: passwordHash,
	}
	d.users[rec.ID] = rec
	return rec.User, nil
}

func (d *Database) UserByEmail(email string) (UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return *u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

func (d *Database) UserByUsername(username string) (UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

// UpdateUser applies patch to the user with the given email. A username
// that belongs to someone else is rejected.
func (d *Database) UpdateUser(email string, patch models.UserPatch) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var rec *UserRecord
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			rec = u
			break
		}
	}
	if rec == nil {
		return models.User{}, ErrNotFound
	}
	if patch.Username != nil && *patch.Username != rec.Username {
		for _, u := range d.users {
			if u.Username == *patch.Username {
				return models.User{}, ErrUsernameTaken
			}
		}
	}
	patch.Apply(&rec.User)
	return rec.User, nil
}

func (d *Database) SetPassword(email, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return ErrNotFound
}

// CreatePost stores p with a fresh id and timestamp and returns the copy.
func (d *Database) CreatePost(p models.Post) models.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = d.timestamp()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Comments = nil
	d.posts = append(d.posts, p)
	return p
}

// ListPosts returns posts newest first. Search matches title, tags and
// author username or name case-insensitively.
func (d *Database) ListPosts(params models.ListParams) ([]models.Post, error) {
	if params.PostType != "" && !params.PostType.Valid() {
		return nil, ErrInvalidPostFilter
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	search := strings.ToLower(strings.TrimSpace(params.Search))

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []models.Post{}
	skipped := 0
	for i := len(d.posts) - 1; i >= 0 && len(out) < limit; i-- {
		p := d.posts[i]
		if params.PostType != "" && p.PostType != params.PostType {
			continue
		}
		if search != "" && !postMatches(p, search) {
			continue
		}
		if skipped < params.Skip {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func postMatches(p models.Post, search string) bool {
	fields := append([]string{p.Title, p.AuthorUsername, p.AuthorName}, p.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// PostsByAuthor returns a user's posts newest first, without comments.
func (d *Database) PostsByAuthor(authorID string) []models.Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []models.Post{}
	for i := len(d.posts) - 1; i >= 0; i-- {
		if d.posts[i].AuthorID == authorID {
			out = append(out, d.posts[i])
		}
	}
	return out
}

// PostByID returns the post with its comments oldest first.
func (d *Database) PostByID(id string) (models.Post, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.posts {
		if p.ID == id {
			p.Comments = append([]models.Comment{}, d.comments[id]...)
			return p, nil
		}
	}
	return models.Post{}, ErrNotFound
}

func (d *Database) AddComment(c models.Comment) (models.Comment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	found := false
	for _, p := range d.posts {
		if p.ID == c.PostID {
			found = true
			break
		}
	}
	if !found {
		return models.Comment{}, ErrNotFound
	}
	c.ID = uuid.NewString()
	c.CreatedAt = d.timestamp()
	d.comments[c.PostID] = append(d.comments[c.PostID], c)
	return c, nil
}

// SaveUpload stores data under a generated name that keeps ext.
func (d *Database) SaveUpload(data []byte, contentType, ext string) string {
	name := uuid.NewString() + ext
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads[name] = Upload{Name: name, ContentType: contentType, Data: data}
	return name
}

func (d *Database) Upload(name string) (Upload, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.uploads[name]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return u, nil
}
