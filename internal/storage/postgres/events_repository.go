package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

type eventRow struct {
	ULID        string
	Title       string
	Description *string
	Location    *string
	StartTime   pgtype.Timestamptz
	EndTime     pgtype.Timestamptz
	OwnerID     uuid.UUID
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

const eventColumns = `ulid, title, description, location, start_time, end_time, owner_id, created_at, updated_at`

func (r *EventRepository) List(ctx context.Context, filters events.Filters, paginationArgs events.Pagination) (events.ListResult, error) {
	queryer := r.queryer()

	limit := paginationArgs.Limit
	if limit <= 0 {
		limit = 50
	}
	limitPlusOne := limit + 1

	var cursorULID *string
	if after := strings.TrimSpace(paginationArgs.After); after != "" {
		upper := strings.ToUpper(after)
		cursorULID = &upper
	}

	rows, err := queryer.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ($1::timestamptz IS NULL OR start_time >= $1::timestamptz)
   AND ($2::timestamptz IS NULL OR start_time <= $2::timestamptz)
   AND ($3::uuid IS NULL OR owner_id = $3::uuid)
   AND ($4 = '' OR title ILIKE '%' || $4 || '%' OR description ILIKE '%' || $4 || '%')
   AND ($5::text IS NULL OR ulid > $5)
 ORDER BY ulid ASC
 LIMIT $6
`,
		filters.StartDate,
		filters.EndDate,
		filters.OwnerID,
		filters.Query,
		cursorULID,
		limitPlusOne,
	)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0, limitPlusOne)
	for rows.Next() {
		var row eventRow
		if err := scanEventFields(rows, &row); err != nil {
			return events.ListResult{}, fmt.Errorf("scan events: %w", err)
		}
		items = append(items, rowToEvent(row))
	}
	if err := rows.Err(); err != nil {
		return events.ListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	result := events.ListResult{}
	if len(items) > limit {
		items = items[:limit]
		result.NextCursor = items[len(items)-1].ULID
	}
	result.Events = items
	return result, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ulid = $1
 LIMIT 1
`, strings.ToUpper(ulid))

	var data eventRow
	if err := scanEventFields(row, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event := rowToEvent(data)
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO events (ulid, title, description, location, start_time, end_time, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+eventColumns+`
`,
		params.ULID,
		params.Title,
		params.Description,
		params.Location,
		params.StartTime,
		params.EndTime,
		params.OwnerID,
	)

	var data eventRow
	if err := scanEventFields(row, &data); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	event := rowToEvent(data)
	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, ulid string, params events.EventUpdateParams) (*events.Event, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
UPDATE events
   SET title = $2,
       description = $3,
       location = $4,
       start_time = $5,
       end_time = $6,
       updated_at = now()
 WHERE ulid = $1
RETURNING `+eventColumns+`
`,
		strings.ToUpper(ulid),
		params.Title,
		params.Description,
		params.Location,
		params.StartTime,
		params.EndTime,
	)

	var data eventRow
	if err := scanEventFields(row, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	event := rowToEvent(data)
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, ulid string) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `DELETE FROM events WHERE ulid = $1`, strings.ToUpper(ulid))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func scanEventFields(row pgx.Row, data *eventRow) error {
	return row.Scan(
		&data.ULID,
		&data.Title,
		&data.Description,
		&data.Location,
		&data.StartTime,
		&data.EndTime,
		&data.OwnerID,
		&data.CreatedAt,
		&data.UpdatedAt,
	)
}

func rowToEvent(row eventRow) events.Event {
	event := events.Event{
		ULID:    row.ULID,
		Title:   row.Title,
		OwnerID: row.OwnerID,
	}
	if row.Description != nil {
		event.Description = *row.Description
	}
	if row.Location != nil {
		event.Location = *row.Location
	}
	if row.StartTime.Valid {
		event.StartTime = row.StartTime.Time
	}
	if row.EndTime.Valid {
		end := row.EndTime.Time
		event.EndTime = &end
	}
	if row.CreatedAt.Valid {
		event.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		event.UpdatedAt = row.UpdatedAt.Time
	}
	return event
}
