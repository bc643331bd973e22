package domain

import "time"

// Client represents an API client allowed to call the service.
type Client struct {
	ID        string
	Name      string
	Token     string
	IsActive  bool
	CreatedAt time.Time
}
