package model

import (
	"fmt"
	"sort"
	"time"
)

// Post is a read-only view of a tweet for the duration of one fetch batch.
type Post struct {
	ID             string
	Text           string
	AuthorUsername string
	CreatedAt      time.Time
}

// URL is the direct link to the post.
func (p Post) URL() string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", p.AuthorUsername, p.ID)
}

// SortOldestFirst orders posts by creation time, falling back to id order
// when timestamps are equal or missing.
func SortOldestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero() && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return ComparePostIDs(a.ID, b.ID) < 0
	})
}

// Newest returns the post with the highest id, or false for an empty batch.
func Newest(posts []Post) (Post, bool) {
	if len(posts) == 0 {
		return Post{}, false
	}
	newest := posts[0]
	for _, p := range posts[1:] {
		if ComparePostIDs(p.ID, newest.ID) > 0 {
			newest = p
		}
	}
	return newest, true
}
