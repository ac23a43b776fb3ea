package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// TagResolver maps opaque user ids to human display tags. Lookups are batched
// so rendering a page of cards costs one query, not one per candidate.
//
// Resolution failure is not an error: the raw id is the required fallback.
type TagResolver struct {
	loader *dataloader.Loader[string, string]
}

func newTagResolver(db *sql.DB) *TagResolver {
	return newTagResolverFromBatch(handleBatchFn(db))
}

// newTagResolverFromBatch lets tests plug in their own batch function.
// Tags can change between requests, so the loader runs cache-less.
func newTagResolverFromBatch(fn dataloader.BatchFunc[string, string]) *TagResolver {
	return &TagResolver{
		loader: dataloader.NewBatchedLoader(
			fn,
			dataloader.WithWait[string, string](16*time.Millisecond),
			dataloader.WithCache[string, string](&dataloader.NoCache[string, string]{}),
		),
	}
}

// DisplayTagFor resolves one user's display tag, falling back to the raw
// identifier when the user is unknown or the lookup fails.
func (r *TagResolver) DisplayTagFor(ctx context.Context, userID string) string {
	tag, err := r.loader.Load(ctx, userID)()
	if err != nil || tag == "" {
		return userID
	}
	return tag
}

// handleBatchFn loads handles for a batch of user ids in one query.
func handleBatchFn(db *sql.DB) dataloader.BatchFunc[string, string] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[string] {
		results := make([]*dataloader.Result[string], len(keys))
		for i := range results {
			results[i] = &dataloader.Result[string]{}
		}
		if len(keys) == 0 {
			return results
		}

		indexByID := make(map[string]int, len(keys))
		args := make([]interface{}, len(keys))
		placeholders := make([]string, len(keys))
		for i, key := range keys {
			indexByID[key] = i
			args[i] = key
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}

		rows, err := db.QueryContext(ctx,
			"SELECT id, handle FROM users WHERE id IN ("+strings.Join(placeholders, ", ")+")", args...)
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}
		defer rows.Close()

		for rows.Next() {
			var id, handle string
			if err := rows.Scan(&id, &handle); err != nil {
				continue
			}
			if i, ok := indexByID[id]; ok {
				results[i].Data = handle
			}
		}
		if err := rows.Err(); err != nil {
			// Iteration died mid-batch; flag the keys that never got a
			// handle so callers fall back instead of trusting a blank.
			for i := range results {
				if results[i].Data == "" {
					results[i].Error = err
				}
			}
		}
		// Missing users keep zero values; DisplayTagFor falls back to the id.
		return results
	}
}
