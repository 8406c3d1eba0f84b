// Package pagination implements timestamp-cursor ("endless") pagination over
// reverse-chronological lists. It works against two explicit candidate
// sources: a bounded in-memory list (typically read from the recency cache)
// and a range-queryable store. Paginate reconciles the two so a page computed
// from a partially retained cache is never silently truncated.
package pagination

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a cursor value cannot be parsed or when
// mutually exclusive cursor parameters are combined.
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorKind selects the direction of a page request.
type CursorKind int

const (
	// CursorNone requests the newest page.
	CursorNone CursorKind = iota
	// CursorNewerThan requests every item strictly newer than At (pull to refresh).
	CursorNewerThan
	// CursorOlderThan requests the page of items strictly older than At (scroll back).
	CursorOlderThan
)

// String implements fmt.Stringer; used as a span/metric attribute.
func (k CursorKind) String() string {
	switch k {
	case CursorNewerThan:
		return "newer_than"
	case CursorOlderThan:
		return "older_than"
	default:
		return "none"
	}
}

// Cursor is a timestamp boundary for a page request.
type Cursor struct {
	Kind CursorKind
	At   time.Time
}

// NewerThan builds a refresh cursor.
func NewerThan(t time.Time) Cursor { return Cursor{Kind: CursorNewerThan, At: t.UTC()} }

// OlderThan builds a scroll-back cursor.
func OlderThan(t time.Time) Cursor { return Cursor{Kind: CursorOlderThan, At: t.UTC()} }

// ParseCursor builds a Cursor from the raw newer_than / older_than request
// values. Both empty yields CursorNone. Supplying both, or a value that is not
// an RFC 3339 timestamp, yields ErrInvalidCursor.
func ParseCursor(newerThan, olderThan string) (Cursor, error) {
	newerThan = strings.TrimSpace(newerThan)
	olderThan = strings.TrimSpace(olderThan)

	switch {
	case newerThan != "" && olderThan != "":
		return Cursor{}, ErrInvalidCursor
	case newerThan != "":
		t, err := parseTimestamp(newerThan)
		if err != nil {
			return Cursor{}, err
		}
		return NewerThan(t), nil
	case olderThan != "":
		t, err := parseTimestamp(olderThan)
		if err != nil {
			return Cursor{}, err
		}
		return OlderThan(t), nil
	default:
		return Cursor{}, nil
	}
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
// Query strings decode '+' as a space, so a single space before the zone
// offset is put back.
func parseTimestamp(s string) (time.Time, error) {
	if i := strings.LastIndex(s, " "); i > 0 && strings.Count(s, " ") == 1 {
		s = s[:i] + "+" + s[i+1:]
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return t, nil
}
