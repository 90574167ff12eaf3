package models

import (
	"strings"
	"time"
)

type PostType string

const (
	PostNotes   PostType = "notes"
	PostJobs    PostType = "jobs"
	PostThreads PostType = "threads"
)

// PostTypes lists the post types in display order.
var PostTypes = []PostType{PostNotes, PostJobs, PostThreads}

func (t PostType) Valid() bool {
	switch t {
	case PostNotes, PostJobs, PostThreads:
		return true
	}
	return false
}

type Post struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	PostType       PostType  `json:"post_type"`
	Tags           []string  `json:"tags"`
	JobLink        string    `json:"job_link,omitempty"`
	FileURL        string    `json:"file_url,omitempty"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorName     string    `json:"author_name"`
	CreatedAt      string    `json:"created_at"` // ISO 8601, zone optional
	Comments       []Comment `json:"comments,omitempty"`
}

type Comment struct {
	ID             string `json:"_id"`
	Content        string `json:"content"`
	PostID         string `json:"post_id"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	AuthorName     string `json:"author_name"`
	CreatedAt      string `json:"created_at"`
}

// ListParams are the optional filters of GET /api/posts. Zero values are
// not sent.
type ListParams struct {
	PostType PostType
	Search   string
	Skip     int
	Limit    int
}

// ParseTags splits a comma separated tag string, trimming each entry and
// dropping the empty ones. Order is preserved.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the wire form of a tag sequence.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the created_at values the API produces. Values
// without a zone are read as UTC. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatTimestamp renders created_at the way the post cards show it, or
// returns s unchanged when it cannot be parsed.
func FormatTimestamp(s string) string {
	t := ParseTimestamp(s)
	if t.IsZero() {
		return s
	}
	return t.Local().Format("Jan 2, 2006 03:04 PM")
}
