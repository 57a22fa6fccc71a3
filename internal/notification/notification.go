package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Notification is a single entry shown on the notifications page.
type Notification struct {
	ID      int    `json:"id" validate:"required,gt=0"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message"`
}

// Source yields the ordered notifications for the page.
type Source interface {
	Notifications(ctx context.Context) ([]Notification, error)
}

// ErrInvalidSource is wrapped by FileSource for malformed or inconsistent data.
var ErrInvalidSource = errors.New("notification: invalid source data")

// StaticSource is the built-in placeholder list.
type StaticSource struct{}

var placeholder = []Notification{
	{ID: 1, Title: "Welcome!", Message: "Thank you for joining our platform!"},
	{ID: 2, Title: "Update Available", Message: "A new update has been released. Please update your app."},
	{ID: 3, Title: "Reminder", Message: "Don’t forget to complete your profile."},
}

// Notifications implements Source. It never fails.
func (StaticSource) Notifications(ctx context.Context) ([]Notification, error) {
	out := make([]Notification, len(placeholder))
	copy(out, placeholder)
	return out, nil
}

// FileSource reads a JSON array of notifications from a file.
type FileSource struct {
	fs       afero.Fs
	path     string
	validate *validator.Validate
}

// NewFileSource creates a FileSource reading path from fs.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path, validate: validator.New()}
}

// Notifications implements Source. Every record is validated and IDs must be unique.
func (s *FileSource) Notifications(ctx context.Context) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("read notifications file %s: %w", s.path, err)
	}

	var items []Notification
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidSource, s.path, err)
	}

	seen := make(map[int]struct{}, len(items))
	for i, n := range items {
		if err := s.validate.Struct(n); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidSource, i, err)
		}
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidSource, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return items, nil
}
