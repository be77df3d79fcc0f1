// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/exerlog/exerlog/internal/model"
	"github.com/exerlog/exerlog/internal/service"
)

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// AddExerciseRequest represents the request body for logging an exercise.
// Duration accepts both 30 and "30".
type AddExerciseRequest struct {
	Description string `json:"description"`
	Duration    Scalar `json:"duration"`
	Date        string `json:"date,omitempty"`
}

// Scalar is a JSON string or number kept in its textual form so that
// form and JSON bodies go through the same validation.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = Scalar(num.String())
	return nil
}

// UserResponse is a user's identity.
type UserResponse struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// ExerciseResponse is the user identity merged with a newly added entry.
type ExerciseResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

// LogEntryResponse is one entry of a log response.
type LogEntryResponse struct {
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
}

// LogResponse is a user's filtered log. Count is the total number of
// entries the user has, not len(Log).
type LogResponse struct {
	ID       string             `json:"id"`
	Username string             `json:"username"`
	Count    int                `json:"count"`
	Log      []LogEntryResponse `json:"log"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		Username: user.Username,
		ID:       user.ID,
	}
}

// ToUserListResponse converts users to a non-nil slice of responses.
func ToUserListResponse(users []*model.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return out
}

// ToExerciseResponse converts an add-exercise result.
func ToExerciseResponse(result *service.ExerciseResult) ExerciseResponse {
	return ExerciseResponse{
		ID:          result.UserID,
		Username:    result.Username,
		Date:        model.FormatDisplayDate(result.Exercise.Date),
		Duration:    result.Exercise.Duration,
		Description: result.Exercise.Description,
	}
}

// ToLogResponse converts a user with a filtered log.
func ToLogResponse(user *model.User) LogResponse {
	entries := make([]LogEntryResponse, len(user.Log))
	for i, e := range user.Log {
		entries[i] = LogEntryResponse{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.Date.UTC(),
		}
	}
	return LogResponse{
		ID:       user.ID,
		Username: user.Username,
		Count:    user.Count,
		Log:      entries,
	}
}
