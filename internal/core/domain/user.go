package domain

import "time"

type User struct {
	NumericID    int64     `json:"numeric_id"`
	PlatformID   int64     `json:"platform_id"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Admin struct {
	PlatformID  int64  `json:"platform_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
