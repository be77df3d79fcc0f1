package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/exerlog/exerlog/internal/handler/dto"
	"github.com/exerlog/exerlog/internal/service"
)

// maxFormMemory bounds multipart parsing; the body itself is already
// capped by the MaxBodySize middleware.
const maxFormMemory = 1 << 20

// errBadBody marks a body that could not be decoded at all. The read error
// is wrapped alongside it so an exceeded body limit stays detectable.
var errBadBody = errors.New("malformed request body")

// UserHandler handles HTTP requests for users and their exercise logs.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUser(r)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Username)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_created", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// AddExercise handles POST /api/users/{id}/exercises.
func (h *UserHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExercise(r)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}

	result, err := h.svc.AddExercise(r.Context(), service.AddExerciseInput{
		UserID:      chi.URLParam(r, "id"),
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        req.Date,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("exercise_added",
		"user_id", result.UserID,
		"duration", result.Exercise.Duration,
	)

	writeJSON(w, http.StatusOK, dto.ToExerciseResponse(result))
}

// Logs handles GET /api/users/{id}/logs?from=&to=&limit=.
func (h *UserHandler) Logs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q, err := service.ParseLogQuery(query.Get("from"), query.Get("to"), query.Get("limit"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	user, err := h.svc.GetLog(r.Context(), chi.URLParam(r, "id"), q)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLogResponse(user))
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrInvalidDate):
		h.writeError(w, http.StatusBadRequest, "INVALID_DATE", err.Error())
	case errors.Is(err, service.ErrValidation):
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeBodyError reports a body that could not be read or decoded.
func (h *UserHandler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeUser(r *http.Request) (dto.CreateUserRequest, error) {
	var req dto.CreateUserRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %w", errBadBody, err)
		}
		return req, nil
	}

	form, err := parseForm(r)
	if err != nil {
		return req, err
	}
	req.Username = form.Get("username")
	return req, nil
}

func decodeExercise(r *http.Request) (dto.AddExerciseRequest, error) {
	var req dto.AddExerciseRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %w", errBadBody, err)
		}
		return req, nil
	}

	form, err := parseForm(r)
	if err != nil {
		return req, err
	}
	req.Description = form.Get("description")
	req.Duration = dto.Scalar(form.Get("duration"))
	req.Date = form.Get("date")
	return req, nil
}

// isJSON reports whether the request body is declared as JSON.
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// parseForm reads url-encoded and multipart bodies into r.PostForm.
func parseForm(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	return r.PostForm, nil
}
