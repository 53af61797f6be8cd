package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("event not found")

var ErrForbidden = errors.New("not the event owner")

type Event struct {
	ULID        string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     *time.Time
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventCreateParams struct {
	ULID        string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     *time.Time
	OwnerID     uuid.UUID
}

type EventUpdateParams struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     *time.Time
}

type Filters struct {
	StartDate *time.Time
	EndDate   *time.Time
	OwnerID   *uuid.UUID
	Query     string
}

type Pagination struct {
	Limit int
	After string
}

type ListResult struct {
	Events     []Event
	NextCursor string
}

type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	Create(ctx context.Context, params EventCreateParams) (*Event, error)
	Update(ctx context.Context, ulid string, params EventUpdateParams) (*Event, error)
	Delete(ctx context.Context, ulid string) error
}
