package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"student-connect/internal/api"
	"student-connect/internal/models"
	"student-connect/internal/session"
)

// PostDetail shows one post with its comments and the comment box. The
// comment box is only usable by a signed-in user.
type PostDetail struct {
	mu         sync.Mutex
	posts      *api.PostsAPI
	session    *session.Session
	id         string
	seq        uint64
	state      State[models.Post]
	draft      string
	submitting bool
	commentMsg string
}

func NewPostDetail(client *api.Client, sess *session.Session) *PostDetail {
	return &PostDetail{posts: client.Posts, session: sess}
}

// Load fetches the post with the given id, comments included.
func (d *PostDetail) Load(ctx context.Context, id string) error {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.id = id
	d.state = LoadingState[models.Post]()
	d.commentMsg = ""
	d.mu.Unlock()

	post, err := d.posts.Get(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return err
	}
	if err != nil {
		d.state = FailedState[models.Post](err, api.Detail(err, "Post not found"))
		return err
	}
	d.state = LoadedState(*post)
	return nil
}

func (d *PostDetail) State() State[models.Post] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *PostDetail) SetDraft(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft = text
}

func (d *PostDetail) Draft() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

func (d *PostDetail) CommentMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commentMsg
}

// CanComment reports whether the submit action is enabled.
func (d *PostDetail) CanComment() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canCommentLocked()
}

func (d *PostDetail) canCommentLocked() bool {
	return d.session.Authenticated() &&
		d.state.Phase() == Loaded &&
		strings.TrimSpace(d.draft) != "" &&
		!d.submitting
}

// SubmitComment posts the draft. On success the comment is appended to the
// loaded post and the draft is cleared; on failure the draft is kept.
func (d *PostDetail) SubmitComment(ctx context.Context) (*models.Comment, error) {
	d.mu.Lock()
	switch {
	case !d.session.Authenticated():
		d.mu.Unlock()
		return nil, ErrNotSignedIn
	case d.state.Phase() != Loaded:
		d.mu.Unlock()
		return nil, ErrNotLoaded
	case d.submitting:
		d.mu.Unlock()
		return nil, ErrBusy
	case strings.TrimSpace(d.draft) == "":
		d.mu.Unlock()
		return nil, ErrEmptyComment
	}
	d.submitting = true
	d.commentMsg = ""
	id, content, seq := d.id, d.draft, d.seq
	d.mu.Unlock()

	comment, err := d.posts.AddComment(ctx, id, content)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		d.commentMsg = api.Detail(err, "Failed to add comment")
		return nil, err
	}
	if seq == d.seq {
		if post, ok := d.state.Data(); ok {
			post.Comments = append(append([]models.Comment(nil), post.Comments...), *comment)
			d.state = LoadedState(post)
		}
		if d.draft == content {
			d.draft = ""
		}
	}
	return comment, nil
}

func (d *PostDetail) Render(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state.Phase() {
	case Idle:
		return
	case Loading:
		fmt.Fprintln(w, "Loading post...")
		return
	case Failed:
		fmt.Fprintln(w, d.state.Message())
		return
	}

	post, _ := d.state.Data()
	writePostFull(w, post)
	fmt.Fprintf(w, "\nComments (%d)\n", len(post.Comments))
	if len(post.Comments) == 0 {
		fmt.Fprintln(w, "  No comments yet.")
	}
	for _, c := range post.Comments {
		writeComment(w, c)
	}
	if !d.session.Authenticated() {
		fmt.Fprintln(w, "\nSign in to comment.")
	}
	if d.commentMsg != "" {
		fmt.Fprintln(w, d.commentMsg)
	}
}
