package model

import "strings"

// Cursor is the last post id delivered for an account. The zero value means
// "none": no lower bound other than the monitoring window start.
type Cursor struct {
	LastSeenPostID string
}

func NewCursor(id string) Cursor { return Cursor{LastSeenPostID: strings.TrimSpace(id)} }

func (c Cursor) IsZero() bool { return c.LastSeenPostID == "" }

// Advance moves the cursor to id when id is newer. It never moves backwards.
func (c Cursor) Advance(id string) Cursor {
	if id == "" {
		return c
	}
	if c.IsZero() || ComparePostIDs(id, c.LastSeenPostID) > 0 {
		return Cursor{LastSeenPostID: id}
	}
	return c
}

func (c Cursor) String() string {
	if c.IsZero() {
		return "none"
	}
	return c.LastSeenPostID
}

// ComparePostIDs orders snowflake ids numerically without parsing them:
// a longer decimal string is the larger number.
func ComparePostIDs(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
