// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/exerlog/exerlog/internal/cache"
	"github.com/exerlog/exerlog/internal/metrics"
	"github.com/exerlog/exerlog/internal/model"
	"github.com/exerlog/exerlog/internal/repository"
)

const (
	maxUsernameLength    = 256
	maxDescriptionLength = 1024
	maxDuration          = math.MaxInt32
)

// Store is the record store the service persists users in. Both the
// PostgreSQL repository and the SQLite store implement it.
type Store interface {
	InsertUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	AppendExercise(ctx context.Context, userID string, exercise model.Exercise) (*model.User, error)
}

// UserCache is a read-through cache of full user records.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// UserService handles user and exercise log business logic.
type UserService struct {
	store   Store
	cache   UserCache
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewUserService creates a new UserService. userCache and recorder may be
// nil.
func NewUserService(store Store, userCache UserCache, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	if userCache == nil {
		userCache = noopCache{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:   store,
		cache:   userCache,
		logger:  logger.With("component", "service.user"),
		metrics: recorder,
		now:     time.Now,
	}
}

// CreateUser creates a user with an empty log. Usernames are not unique.
func (s *UserService) CreateUser(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username exceeds %d bytes", ErrValidation, maxUsernameLength)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Username:  username,
		Count:     0,
		Log:       []model.Exercise{},
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.metrics.IncUserCreated()

	return user, nil
}

// ListUsers returns all users' ids and usernames in store order.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return users, nil
}

// AddExerciseInput defines input for logging an exercise. Duration and
// Date arrive as raw request strings.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// ExerciseResult is the user identity merged with the entry just added.
type ExerciseResult struct {
	UserID   string
	Username string
	Exercise model.Exercise
}

// AddExercise appends an entry to a user's log. An empty Date means now.
func (s *UserService) AddExercise(ctx context.Context, input AddExerciseInput) (*ExerciseResult, error) {
	exercise, err := s.buildExercise(input)
	if err != nil {
		return nil, err
	}

	user, err := s.store.AppendExercise(ctx, input.UserID, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.metrics.IncExerciseAdded()

	if err := s.cache.DeleteUser(ctx, user.ID); err != nil {
		// The entry expires on its own; a stale read is bounded by the TTL.
		s.logger.Warn("cache invalidation failed", "user_id", user.ID, "error", err)
	}

	return &ExerciseResult{
		UserID:   user.ID,
		Username: user.Username,
		Exercise: exercise,
	}, nil
}

// GetLog returns the user with the filtered log. Count stays the total
// number of entries, not the size of the filtered view.
func (s *UserService) GetLog(ctx context.Context, userID string, query LogQuery) (*model.User, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveLogQueryDuration(time.Since(start))
	}()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.User{
		ID:        user.ID,
		Username:  user.Username,
		Count:     user.Count,
		Log:       ApplyLogQuery(user.Log, query, s.now().UTC()),
		CreatedAt: user.CreatedAt,
	}, nil
}

// loadUser resolves a full user record, cache first.
func (s *UserService) loadUser(ctx context.Context, id string) (*model.User, error) {
	cached, err := s.cache.GetUser(ctx, id)
	if err == nil {
		s.metrics.IncLogCacheHit()
		return cached, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncLogCacheMiss()
		if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
			return nil, ErrNotFound
		}
	} else {
		s.logger.Warn("cache read failed, falling back to store", "user_id", id, "error", err)
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.cache.SetNegativeCache(ctx, id)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("cache backfill failed", "user_id", id, "error", err)
	}

	return user, nil
}

// buildExercise validates the raw input and resolves the date.
func (s *UserService) buildExercise(input AddExerciseInput) (model.Exercise, error) {
	if input.Description == "" {
		return model.Exercise{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if len(input.Description) > maxDescriptionLength {
		return model.Exercise{}, fmt.Errorf("%w: description exceeds %d bytes", ErrValidation, maxDescriptionLength)
	}

	duration, err := parseDuration(input.Duration)
	if err != nil {
		return model.Exercise{}, err
	}

	date := s.now().UTC()
	if input.Date != "" {
		date, err = model.ParseDate(input.Date)
		if err != nil {
			return model.Exercise{}, fmt.Errorf("%w: date %q", ErrInvalidDate, input.Date)
		}
	}

	return model.Exercise{
		Description: input.Description,
		Duration:    duration,
		Date:        date,
	}, nil
}

// parseDuration coerces a raw duration to whole minutes. The upper bound
// is the range of the duration column.
func parseDuration(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: duration must be a non-negative integer", ErrValidation)
	}
	if n > maxDuration {
		return 0, fmt.Errorf("%w: duration exceeds %d minutes", ErrValidation, maxDuration)
	}
	return n, nil
}

// noopCache is used when Redis is not configured.
type noopCache struct{}

func (noopCache) GetUser(context.Context, string) (*model.User, error) {
	return nil, cache.ErrCacheMiss
}

func (noopCache) SetUser(context.Context, *model.User) error { return nil }

func (noopCache) DeleteUser(context.Context, string) error { return nil }

func (noopCache) IsNegativelyCached(context.Context, string) (bool, error) { return false, nil }

func (noopCache) SetNegativeCache(context.Context, string) error { return nil }
