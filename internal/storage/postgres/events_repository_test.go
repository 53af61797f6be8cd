package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, ctx context.Context, repo *EventRepository, owner uuid.UUID, title string, start time.Time) events.Event {
	t.Helper()
	created, err := repo.Create(ctx, events.EventCreateParams{
		ULID:      ulid.Make().String(),
		Title:     title,
		StartTime: start,
		OwnerID:   owner,
	})
	require.NoError(t, err)
	return *created
}

func TestEventRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool, _ := setupPostgres(t, ctx)

	owner := insertAccount(t, ctx, pool, "Host", "host@example.com", "hash")
	repo := &EventRepository{pool: pool}

	start := time.Now().UTC()
	created, err := repo.Create(ctx, events.EventCreateParams{
		ULID:        ulid.Make().String(),
		Title:       "Garden Social",
		Description: "Snacks in the courtyard",
		Location:    "Hall B",
		StartTime:   start,
		EndTime:     timePtr(start.Add(2 * time.Hour)),
		OwnerID:     owner,
	})
	require.NoError(t, err)
	require.Equal(t, "Garden Social", created.Title)
	require.Equal(t, owner, created.OwnerID)
	require.WithinDuration(t, start, created.StartTime, time.Second)
	require.NotNil(t, created.EndTime)
	require.False(t, created.CreatedAt.IsZero())

	// Lookup is case-insensitive on the ULID.
	found, err := repo.GetByULID(ctx, strings.ToLower(created.ULID))
	require.NoError(t, err)
	require.Equal(t, created.ULID, found.ULID)
	require.Equal(t, "Snacks in the courtyard", found.Description)

	_, err = repo.GetByULID(ctx, ulid.Make().String())
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	pool, _ := setupPostgres(t, ctx)

	owner := insertAccount(t, ctx, pool, "Host", "host@example.com", "hash")
	repo := &EventRepository{pool: pool}

	created := seedEvent(t, ctx, repo, owner, "Before", time.Now().UTC())

	updated, err := repo.Update(ctx, created.ULID, events.EventUpdateParams{
		Title:     "After",
		Location:  "Hall C",
		StartTime: created.StartTime.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Title)
	require.Equal(t, "Hall C", updated.Location)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = repo.Update(ctx, ulid.Make().String(), events.EventUpdateParams{Title: "Ghost"})
	require.ErrorIs(t, err, events.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, created.ULID))

	_, err = repo.GetByULID(ctx, created.ULID)
	require.ErrorIs(t, err, events.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, created.ULID), events.ErrNotFound)
}

func TestEventRepositoryListKeysetPagination(t *testing.T) {
	ctx := context.Background()
	pool, _ := setupPostgres(t, ctx)

	owner := insertAccount(t, ctx, pool, "Host", "host@example.com", "hash")
	repo := &EventRepository{pool: pool}

	start := time.Now().UTC()
	seeded := make(map[string]bool, 5)
	for i := 0; i < 5; i++ {
		event := seedEvent(t, ctx, repo, owner, "Meetup", start.Add(time.Duration(i)*time.Hour))
		seeded[event.ULID] = true
	}

	page1, err := repo.List(ctx, events.Filters{}, events.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Events, 2)
	require.Equal(t, page1.Events[1].ULID, page1.NextCursor)

	page2, err := repo.List(ctx, events.Filters{}, events.Pagination{Limit: 2, After: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Events, 2)
	require.Greater(t, page2.Events[0].ULID, page1.NextCursor)

	page3, err := repo.List(ctx, events.Filters{}, events.Pagination{Limit: 2, After: page2.NextCursor})
	require.NoError(t, err)
	require.Len(t, page3.Events, 1)
	require.Empty(t, page3.NextCursor)

	seen := make(map[string]bool, 5)
	for _, page := range []events.ListResult{page1, page2, page3} {
		for _, event := range page.Events {
			require.False(t, seen[event.ULID], "ULID %s returned twice", event.ULID)
			require.True(t, seeded[event.ULID], "ULID %s was never seeded", event.ULID)
			seen[event.ULID] = true
		}
	}
	require.Len(t, seen, 5)
}

func TestEventRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	pool, _ := setupPostgres(t, ctx)

	alice := insertAccount(t, ctx, pool, "Alice", "alice@example.com", "hash")
	bob := insertAccount(t, ctx, pool, "Bob", "bob@example.com", "hash")
	repo := &EventRepository{pool: pool}

	base := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	seedEvent(t, ctx, repo, alice, "Spring Picnic", base)
	seedEvent(t, ctx, repo, alice, "Board Games Night", base.AddDate(0, 1, 0))
	seedEvent(t, ctx, repo, bob, "Summer picnic rematch", base.AddDate(0, 2, 0))

	byOwner, err := repo.List(ctx, events.Filters{OwnerID: &bob}, events.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, byOwner.Events, 1)
	require.Equal(t, bob, byOwner.Events[0].OwnerID)

	windowEnd := base.AddDate(0, 1, 15)
	byDate, err := repo.List(ctx, events.Filters{StartDate: timePtr(base.AddDate(0, 0, 15)), EndDate: &windowEnd}, events.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, byDate.Events, 1)
	require.Equal(t, "Board Games Night", byDate.Events[0].Title)

	byQuery, err := repo.List(ctx, events.Filters{Query: "PICNIC"}, events.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, byQuery.Events, 2)
}
