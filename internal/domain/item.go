package domain

import (
	"maps"
	"strings"
	"time"
)

// Item represents one card on a board.
type Item struct {
	ID          string
	BoardID     string
	GroupID     string
	Title       string
	Description string
	Order       int
	Fields      map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemInput holds input values for item construction.
type ItemInput struct {
	ID          string
	BoardID     string
	GroupID     string
	Title       string
	Description string
	Order       int
	Fields      map[string]string
}

// NewItem constructs a new value for this package.
func NewItem(in ItemInput, now time.Time) (Item, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" || in.BoardID == "" {
		return Item{}, ErrInvalidID
	}
	if in.GroupID == "" {
		return Item{}, ErrInvalidGroupID
	}
	if in.Title == "" {
		return Item{}, ErrInvalidTitle
	}
	if in.Order < 0 {
		return Item{}, ErrInvalidOrder
	}

	return Item{
		ID:          in.ID,
		BoardID:     in.BoardID,
		GroupID:     in.GroupID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Order:       in.Order,
		Fields:      normalizeFields(in.Fields),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// UpdateDetails updates title, description, and free-form fields.
func (i *Item) UpdateDetails(title, description string, fields map[string]string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	i.Title = title
	i.Description = strings.TrimSpace(description)
	i.Fields = normalizeFields(fields)
	i.UpdatedAt = now.UTC()
	return nil
}

// Place sets group membership and order.
func (i *Item) Place(groupID string, order int, now time.Time) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return ErrInvalidGroupID
	}
	if order < 0 {
		return ErrInvalidOrder
	}
	i.GroupID = groupID
	i.Order = order
	i.UpdatedAt = now.UTC()
	return nil
}

// normalizeFields trims keys and drops empty ones.
func normalizeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range maps.All(fields) {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}
