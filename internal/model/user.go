// Package model defines domain entities for the application.
package model

import "time"

// User is a tracked person together with their exercise log.
// Count always equals len(Log) for a fully loaded user; list queries
// leave Log nil and only fill the header fields.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Count     int        `json:"count"`
	Log       []Exercise `json:"log"`
	CreatedAt time.Time  `json:"created_at"`
}

// Exercise is one logged activity. It is owned by its user's log and
// has no identity of its own.
type Exercise struct {
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
}
