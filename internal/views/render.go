package views

import (
	"fmt"
	"io"
	"strings"

	"student-connect/internal/models"
	"student-connect/internal/utils"
)

func writePostCard(w io.Writer, p models.Post) {
	fmt.Fprintf(w, "[%s] %s  (%s)\n", p.PostType, p.Title, models.FormatTimestamp(p.CreatedAt))
	fmt.Fprintf(w, "  id: %s  by %s (@%s)\n", p.ID, p.AuthorName, p.AuthorUsername)
	if p.Content != "" {
		fmt.Fprintf(w, "  %s\n", oneLine(p.Content, 160))
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "  #%s\n", strings.Join(p.Tags, " #"))
	}
	if p.JobLink != "" {
		fmt.Fprintf(w, "  View job: %s\n", p.JobLink)
	}
	if p.FileURL != "" {
		fmt.Fprintf(w, "  Download file: %s\n", p.FileURL)
	}
}

func writePostFull(w io.Writer, p models.Post) {
	fmt.Fprintf(w, "[%s] %s\n", p.PostType, p.Title)
	fmt.Fprintf(w, "by %s (@%s) on %s\n\n", p.AuthorName, p.AuthorUsername, models.FormatTimestamp(p.CreatedAt))
	fmt.Fprintln(w, p.Content)
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "\n#%s\n", strings.Join(p.Tags, " #"))
	}
	if p.JobLink != "" {
		fmt.Fprintf(w, "View job: %s\n", p.JobLink)
	}
	if p.FileURL != "" {
		fmt.Fprintf(w, "Download file: %s\n", p.FileURL)
	}
}

func writeComment(w io.Writer, c models.Comment) {
	fmt.Fprintf(w, "  %s (@%s), %s\n    %s\n", c.AuthorName, c.AuthorUsername, models.FormatTimestamp(c.CreatedAt), c.Content)
}

func writeFieldErrors(w io.Writer, errs []utils.FieldError) {
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s\n", e.Message)
	}
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
