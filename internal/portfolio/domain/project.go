package domain

import "time"

type Project struct {
	ID        int64
	UserID    int64 // owning user
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
