package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"student-connect/internal/models"
)

type PostsAPI struct{ c *Client }

// Create submits a new post as multipart form data. Title and content are
// checked locally before anything is sent; tags are trimmed and empty ones
// dropped.
func (p *PostsAPI) Create(ctx context.Context, post models.NewPost) (*models.Post, error) {
	if strings.TrimSpace(post.Title) == "" || strings.TrimSpace(post.Content) == "" {
		return nil, validationError("Please fill in title and content")
	}

	tags := models.ParseTags(models.JoinTags(post.Tags))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", post.Title},
		{"content", post.Content},
		{"post_type", string(post.PostType)},
		{"tags", models.JoinTags(tags)},
	}
	if post.JobLink != "" {
		fields = append(fields, [2]string{"job_link", post.JobLink})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if post.File != nil {
		if err := writeFilePart(mw, "file", *post.File); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := p.c.newRequest(ctx, http.MethodPost, "/api/posts", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var created models.Post
	if err := p.c.do(req, &created, nil); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListQuery encodes only the parameters that differ from the defaults.
// The "all" pseudo type means no post_type filter.
func ListQuery(params models.ListParams) url.Values {
	q := url.Values{}
	if params.PostType != "" && params.PostType != "all" {
		q.Set("post_type", string(params.PostType))
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Skip > 0 {
		q.Set("skip", strconv.Itoa(params.Skip))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	return q
}

// List returns posts in the order the server sends them.
func (p *PostsAPI) List(ctx context.Context, params models.ListParams) ([]models.Post, error) {
	path := "/api/posts"
	if q := ListQuery(params); len(q) > 0 {
		path += "?" + q.Encode()
	}
	posts := []models.Post{}
	if err := p.c.doJSON(ctx, http.MethodGet, path, nil, &posts, nil); err != nil {
		return nil, err
	}
	return posts, nil
}

// The backend answers a malformed post id with 400.
var getPostStatusKinds = map[int]error{http.StatusBadRequest: ErrNotFound}

// Get fetches one post including its comments.
func (p *PostsAPI) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	path := "/api/posts/" + url.PathEscape(id)
	if err := p.c.doJSON(ctx, http.MethodGet, path, nil, &post, getPostStatusKinds); err != nil {
		return nil, err
	}
	return &post, nil
}

func (p *PostsAPI) AddComment(ctx context.Context, postID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, validationError("Comment cannot be empty")
	}
	in := struct {
		Content string `json:"content"`
		PostID  string `json:"post_id"`
	}{Content: content, PostID: postID}

	var comment models.Comment
	path := "/api/posts/" + url.PathEscape(postID) + "/comments"
	if err := p.c.doJSON(ctx, http.MethodPost, path, in, &comment, nil); err != nil {
		return nil, err
	}
	return &comment, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFilePart adds a file part whose Content-Type is sniffed from the
// bytes, so servers that check the part type see the real one.
func writeFilePart(mw *multipart.Writer, field string, file models.Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Filename)))
	h.Set("Content-Type", mimetype.Detect(file.Data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}
