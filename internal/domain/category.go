package domain

import "time"

// Category classifies task requests. At most one category is the default.
type Category struct {
	ID          int64
	Name        string
	Description string
	IsDefault   bool
	IsActive    bool
	CreatedAt   time.Time
}
