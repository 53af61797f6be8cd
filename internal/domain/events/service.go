package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gatherpoint/server/internal/domain/ids"
	"github.com/gatherpoint/server/internal/sanitize"
	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error) {
	return s.repo.List(ctx, filters, pagination)
}

func (s *Service) GetByULID(ctx context.Context, ulid string) (*Event, error) {
	return s.repo.GetByULID(ctx, ulid)
}

type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input EventInput) (*Event, error) {
	start, end, err := parseTimes(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, FilterError{Field: "title", Message: "required"}
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event ulid: %w", err)
	}

	return s.repo.Create(ctx, EventCreateParams{
		ULID:        ulid,
		Title:       sanitize.Text(strings.TrimSpace(input.Title)),
		Description: sanitize.HTML(input.Description),
		Location:    sanitize.Text(input.Location),
		StartTime:   start,
		EndTime:     end,
		OwnerID:     ownerID,
	})
}

// Update replaces the mutable fields of an event. Only the owner may
// update; anyone else gets ErrForbidden without learning field-level
// validity.
func (s *Service) Update(ctx context.Context, ulid string, callerID uuid.UUID, input EventInput) (*Event, error) {
	existing, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != callerID {
		return nil, ErrForbidden
	}

	start, end, err := parseTimes(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, FilterError{Field: "title", Message: "required"}
	}

	return s.repo.Update(ctx, ulid, EventUpdateParams{
		Title:       sanitize.Text(strings.TrimSpace(input.Title)),
		Description: sanitize.HTML(input.Description),
		Location:    sanitize.Text(input.Location),
		StartTime:   start,
		EndTime:     end,
	})
}

func (s *Service) Delete(ctx context.Context, ulid string, callerID uuid.UUID) error {
	existing, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return err
	}
	if existing.OwnerID != callerID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, ulid)
}

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Limit: 50}

	startDate, err := parseDate("startDate", values.Get("startDate"))
	if err != nil {
		return filters, pagination, err
	}
	endDate, err := parseDate("endDate", values.Get("endDate"))
	if err != nil {
		return filters, pagination, err
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return filters, pagination, FilterError{Field: "endDate", Message: "must be on or after startDate"}
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	filters.Query = strings.TrimSpace(values.Get("q"))

	if owner := strings.TrimSpace(values.Get("ownerId")); owner != "" {
		parsed, err := uuid.Parse(owner)
		if err != nil {
			return filters, pagination, FilterError{Field: "ownerId", Message: "invalid account id"}
		}
		filters.OwnerID = &parsed
	}

	limit, err := parseLimit(values)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Limit = limit

	after := strings.TrimSpace(values.Get("after"))
	if after != "" {
		if err := ids.ValidateULID(after); err != nil {
			return filters, pagination, FilterError{Field: "after", Message: "must be a valid ULID"}
		}
	}
	pagination.After = after

	return filters, pagination, nil
}

func parseDate(field string, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, FilterError{Field: field, Message: "must be ISO8601 date"}
	}
	return &parsed, nil
}

func parseLimit(values url.Values) (int, error) {
	limit := 50
	rawLimit := strings.TrimSpace(values.Get("limit"))
	if rawLimit == "" {
		return limit, nil
	}
	parsed, err := strconv.Atoi(rawLimit)
	if err != nil {
		return 0, FilterError{Field: "limit", Message: "must be a number"}
	}
	if parsed < 1 || parsed > 200 {
		return 0, FilterError{Field: "limit", Message: "must be between 1 and 200"}
	}
	return parsed, nil
}

func parseTimes(input EventInput) (time.Time, *time.Time, error) {
	startRaw := strings.TrimSpace(input.StartTime)
	if startRaw == "" {
		return time.Time{}, nil, FilterError{Field: "start_time", Message: "required"}
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, nil, FilterError{Field: "start_time", Message: "must be RFC3339 timestamp"}
	}

	endRaw := strings.TrimSpace(input.EndTime)
	if endRaw == "" {
		return start, nil, nil
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, nil, FilterError{Field: "end_time", Message: "must be RFC3339 timestamp"}
	}
	if end.Before(start) {
		return time.Time{}, nil, FilterError{Field: "end_time", Message: "must be on or after start_time"}
	}
	return start, &end, nil
}
