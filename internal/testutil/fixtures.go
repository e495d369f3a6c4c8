// Package testutil provides deterministic clocks and post fixtures shared by
// tests across packages.
package testutil

import (
	"fmt"
	"time"

	"github.com/populare/dbproxy/internal/post"
)

// NewPost returns a post without an id authored by "author".
func NewPost(text string, createdAt time.Time) *post.Post {
	return post.New(text, "author", createdAt)
}

// Day returns midnight UTC of the given day in January 2022.
func Day(day int) time.Time {
	return time.Date(2022, 1, day, 0, 0, 0, 0, time.UTC)
}

// January returns posts "1".."n" created on consecutive January 2022 days.
func January(n int) []*post.Post {
	posts := make([]*post.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, NewPost(fmt.Sprint(i), Day(i)))
	}
	return posts
}
