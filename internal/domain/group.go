package domain

import (
	"strings"
	"time"
)

// Group represents one board column. Items reference their group; the group holds no item list.
type Group struct {
	ID        string
	BoardID   string
	Title     string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGroup constructs a new value for this package.
func NewGroup(id, boardID, title string, order int, now time.Time) (Group, error) {
	id = strings.TrimSpace(id)
	boardID = strings.TrimSpace(boardID)
	title = strings.TrimSpace(title)
	if id == "" || boardID == "" {
		return Group{}, ErrInvalidID
	}
	if title == "" {
		return Group{}, ErrInvalidTitle
	}
	if order < 0 {
		return Group{}, ErrInvalidOrder
	}
	return Group{
		ID:        id,
		BoardID:   boardID,
		Title:     title,
		Order:     order,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Rename renames the group.
func (g *Group) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	g.Title = title
	g.UpdatedAt = now.UTC()
	return nil
}

// SetOrder handles set order.
func (g *Group) SetOrder(order int, now time.Time) error {
	if order < 0 {
		return ErrInvalidOrder
	}
	g.Order = order
	g.UpdatedAt = now.UTC()
	return nil
}
