package domain

import (
	"strings"
	"time"
)

// Board represents board data used by this package.
type Board struct {
	ID          string
	Slug        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewBoard constructs a new value for this package.
func NewBoard(id, name, description string, now time.Time) (Board, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Board{}, ErrInvalidID
	}
	if name == "" {
		return Board{}, ErrInvalidName
	}
	return Board{
		ID:          id,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Rename renames the board and refreshes its slug.
func (b *Board) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	b.Name = name
	b.Slug = normalizeSlug(name)
	b.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the board.
func (b *Board) Archive(now time.Time) {
	ts := now.UTC()
	b.ArchivedAt = &ts
	b.UpdatedAt = ts
}

// Restore restores the board.
func (b *Board) Restore(now time.Time) {
	b.ArchivedAt = nil
	b.UpdatedAt = now.UTC()
}

// normalizeSlug normalizes slug.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
