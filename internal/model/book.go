package model

import (
	"fmt"

	"shelf-scanner/backend/internal/agent/response"

	"golang.org/x/text/unicode/norm"
)

// DefaultCoverURLTemplate yields an identifier-keyed placeholder image.
const DefaultCoverURLTemplate = "https://picsum.photos/200/300?random=%d"

// Book is one identified book as returned to the client
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

// BooksResponse is the success body of the image processing endpoint
type BooksResponse struct {
	Books []Book `json:"books"`
}

// ErrorResponse is the error envelope shared by all endpoints
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewErrorResponse builds an error envelope
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message, Code: code}
}

// CoverFunc maps a book identifier to a cover image reference.
type CoverFunc func(id int) string

// TemplateCover returns a CoverFunc that formats the identifier into tmpl,
// which must contain exactly one %d verb.
func TemplateCover(tmpl string) CoverFunc {
	return func(id int) string {
		return fmt.Sprintf(tmpl, id)
	}
}

// BooksFromGists numbers the gists 1..n in map order and attaches a cover to
// each. Text is NFC-normalized for display; the map itself is not changed.
func BooksFromGists(gists response.GistMap, cover CoverFunc) []Book {
	if cover == nil {
		cover = TemplateCover(DefaultCoverURLTemplate)
	}

	entries := gists.Entries()
	books := make([]Book, 0, len(entries))
	for i, e := range entries {
		id := i + 1
		books = append(books, Book{
			ID:          id,
			Title:       norm.NFC.String(e.Title),
			Description: norm.NFC.String(e.Gist),
			Cover:       cover(id),
		})
	}
	return books
}
