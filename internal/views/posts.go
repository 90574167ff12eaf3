package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"student-connect/internal/api"
	"student-connect/internal/models"
	"student-connect/internal/utils"
)

// Filter is the listing's post type selector. FilterAll sends no
// post_type parameter.
type Filter string

const FilterAll Filter = "all"

// Filters lists the selector options in display order.
var Filters = []Filter{FilterAll, Filter(models.PostNotes), Filter(models.PostJobs), Filter(models.PostThreads)}

func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// PostsListing is the posts tab: a filtered, searchable list plus the
// create-post form. Every fetch is stamped with a sequence number and a
// response that arrives after a newer fetch started is dropped.
type PostsListing struct {
	mu     sync.Mutex
	posts  *api.PostsAPI
	filter Filter
	search string
	seq    uint64
	state  State[[]models.Post]

	creating     bool
	createMsg    string
	createErrors []utils.FieldError
}

func NewPostsListing(client *api.Client) *PostsListing {
	return &PostsListing{posts: client.Posts, filter: FilterAll}
}

// Params returns the request the current filter and search produce.
func (l *PostsListing) Params() models.ListParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paramsLocked()
}

func (l *PostsListing) paramsLocked() models.ListParams {
	p := models.ListParams{Search: l.search}
	if l.filter != FilterAll {
		p.PostType = models.PostType(l.filter)
	}
	return p
}

// SetFilter changes the post type filter and refetches.
func (l *PostsListing) SetFilter(ctx context.Context, f Filter) error {
	if _, err := ParseFilter(string(f)); err != nil {
		return err
	}
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
	return l.Fetch(ctx)
}

// SetSearch changes the search text and refetches.
func (l *PostsListing) SetSearch(ctx context.Context, search string) error {
	l.mu.Lock()
	l.search = search
	l.mu.Unlock()
	return l.Fetch(ctx)
}

// SetQuery changes filter and search together and fetches once.
func (l *PostsListing) SetQuery(ctx context.Context, f Filter, search string) error {
	if _, err := ParseFilter(string(f)); err != nil {
		return err
	}
	l.mu.Lock()
	l.filter = f
	l.search = search
	l.mu.Unlock()
	return l.Fetch(ctx)
}

// Fetch loads posts for the current filter and search. It returns the
// fetch error even when the result was superseded by a newer fetch.
func (l *PostsListing) Fetch(ctx context.Context) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	params := l.paramsLocked()
	l.state = LoadingState[[]models.Post]()
	l.mu.Unlock()

	posts, err := l.posts.List(ctx, params)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return err
	}
	if err != nil {
		l.state = FailedState[[]models.Post](err, api.Detail(err, "Failed to load posts"))
		return err
	}
	l.state = LoadedState(posts)
	return nil
}

func (l *PostsListing) State() State[[]models.Post] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Empty is true when a fetch succeeded with no posts.
func (l *PostsListing) Empty() bool {
	posts, ok := l.State().Data()
	return ok && len(posts) == 0
}

func (l *PostsListing) Filter() Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

func (l *PostsListing) Search() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

// Create submits the create-post form. On success the new post is put at
// the top of the loaded list without a refetch; the next fetch replaces it
// with the server's view.
func (l *PostsListing) Create(ctx context.Context, form models.PostForm) (*models.Post, error) {
	l.mu.Lock()
	if l.creating {
		l.mu.Unlock()
		return nil, ErrBusy
	}
	if errs := utils.ValidateForm(form); errs != nil {
		l.createErrors = errs
		l.createMsg = utils.JoinFieldErrors(errs)
		l.mu.Unlock()
		return nil, ErrInvalidForm
	}
	l.createErrors = nil
	l.createMsg = ""
	l.creating = true
	l.mu.Unlock()

	post, err := l.posts.Create(ctx, form.ToNewPost())

	l.mu.Lock()
	defer l.mu.Unlock()
	l.creating = false
	if err != nil {
		l.createMsg = api.Detail(err, "Failed to create post")
		return nil, err
	}
	if posts, ok := l.state.Data(); ok {
		l.state = LoadedState(append([]models.Post{*post}, posts...))
	}
	return post, nil
}

// CreateMessage is the create form's inline message.
func (l *PostsListing) CreateMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createMsg
}

func (l *PostsListing) CreateErrors() []utils.FieldError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]utils.FieldError(nil), l.createErrors...)
}

func (l *PostsListing) Creating() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creating
}

func (l *PostsListing) Render(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(w, "Posts (filter: %s", l.filter)
	if l.search != "" {
		fmt.Fprintf(w, ", search: %q", l.search)
	}
	fmt.Fprintln(w, ")")

	if l.createMsg != "" {
		fmt.Fprintln(w, l.createMsg)
		writeFieldErrors(w, l.createErrors)
	}

	switch l.state.Phase() {
	case Idle:
		return
	case Loading:
		fmt.Fprintln(w, "Loading posts...")
	case Failed:
		fmt.Fprintln(w, l.state.Message())
	case Loaded:
		posts, _ := l.state.Data()
		if len(posts) == 0 {
			fmt.Fprintln(w, "No posts found. Try a different search or filter, or create the first post.")
			return
		}
		for _, p := range posts {
			writePostCard(w, p)
			fmt.Fprintln(w)
		}
	}
}
