// Package post defines the Post record shared by the store, the facade and
// every transport, together with its wire representation.
//
// The wire form is a JSON object with exactly four keys:
//
//	{"id": 1, "text": "...", "author": "...", "created_at": "2022-01-03T06:00:00Z"}
//
// created_at is always rendered in UTC with RFC 3339 nanosecond precision so
// that clients can parse it back into the same instant.
package post

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Column bounds. Enforced by the storage engine, mirrored by input validation.
const (
	MaxTextLen   = 255
	MaxAuthorLen = 255
)

// Fields is a set of the nullable text columns of a Post.
type Fields uint8

const (
	FieldText Fields = 1 << iota
	FieldAuthor
)

// Has reports whether every field in f is in s.
func (s Fields) Has(f Fields) bool { return s&f == f }

// Post is a single timestamped record.
//
// A zero ID means "not yet assigned"; the store fills it in on create.
// An empty Text or Author is a real value. A field is absent only when it
// is listed in Unset, and a zero CreatedAt means created_at is absent.
type Post struct {
	ID        int64     `db:"id"`
	Text      string    `db:"text"`
	Author    string    `db:"author"`
	CreatedAt time.Time `db:"created_at"`

	Unset Fields `db:"-"`
}

// New returns a post without an id.
func New(text, author string, createdAt time.Time) *Post {
	return &Post{Text: text, Author: author, CreatedAt: createdAt}
}

// wirePost is the JSON shape of a Post.
type wirePost struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

// MarshalJSON renders the wire representation.
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePost{
		ID:        p.ID,
		Text:      p.Text,
		Author:    p.Author,
		CreatedAt: FormatTimestamp(p.CreatedAt),
	})
}

// UnmarshalJSON parses the wire representation.
func (p *Post) UnmarshalJSON(data []byte) error {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode post: %w", err)
	}
	var createdAt time.Time
	if w.CreatedAt != "" {
		t, err := ParseTimestamp(w.CreatedAt)
		if err != nil {
			return fmt.Errorf("decode post: %w", err)
		}
		createdAt = t
	}
	*p = Post{ID: w.ID, Text: w.Text, Author: w.Author, CreatedAt: createdAt}
	return nil
}

// String returns the wire representation, so printing a Post yields
// something a client can parse.
func (p Post) String() string {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("post(id=%d): %v", p.ID, err)
	}
	return string(data)
}

// Equal reports whether two posts carry the same id, text, author and
// instant. Locations of CreatedAt are ignored.
func (p Post) Equal(other Post) bool {
	return p.ID == other.ID &&
		p.Text == other.Text &&
		p.Author == other.Author &&
		p.CreatedAt.Equal(other.CreatedAt)
}

// Timestamp layouts accepted on input, most specific first. Layouts without
// a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatTimestamp renders t in the wire format. The zero time renders as "".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want ISO-8601 (e.g. 2006-01-02T15:04:05Z)", s)
}
