// Package etl moves catalog content from Postgres into the search
// indices. Each index keeps its own checkpoint, so only rows modified
// after the previous run are read.
package etl

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinohub/moviesearch/internal/search"
)

// Source reads changed rows from the content database.
type Source interface {
	ChangedFilms(ctx context.Context, since time.Time, limit int) ([]ChangedID, error)
	FilmRows(ctx context.Context, ids []string) ([]FilmRow, error)
	ChangedGenres(ctx context.Context, since time.Time, limit int) ([]GenreRow, error)
	ChangedPersons(ctx context.Context, since time.Time, limit int) ([]PersonRow, error)
}

// Sink indexes documents.
type Sink interface {
	Bulk(ctx context.Context, index string, docs []Document) (int, error)
}

// Checkpoints persists per-index watermarks.
type Checkpoints interface {
	Checkpoint(ctx context.Context, index string) (time.Time, error)
	SetCheckpoint(ctx context.Context, index string, ts time.Time) error
}

// Runner drives the sync loop.
type Runner struct {
	source    Source
	sink      Sink
	state     Checkpoints
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewRunner wires a Runner. batchSize values below one fall back to a
// single-row batch.
func NewRunner(source Source, sink Sink, state Checkpoints, logger *slog.Logger, interval time.Duration, batchSize int) *Runner {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Runner{
		source:    source,
		sink:      sink,
		state:     state,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run keeps the indices in sync until ctx is cancelled. Failed passes
// are logged and retried on the next tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("sync pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce drains every index once. Genres and persons go first so
// rebuilt movie documents pick up fresh names.
func (r *Runner) SyncOnce(ctx context.Context) error {
	passes := []struct {
		index string
		sync  func(context.Context) (int, error)
	}{
		{search.IndexGenres, r.syncGenres},
		{search.IndexPersons, r.syncPersons},
		{search.IndexMovies, r.syncMovies},
	}
	for _, pass := range passes {
		count, err := pass.sync(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			r.logger.Info("index synced", "index", pass.index, "documents", count)
		}
	}
	return nil
}

func (r *Runner) syncGenres(ctx context.Context) (int, error) {
	since, err := r.state.Checkpoint(ctx, search.IndexGenres)
	if err != nil {
		return 0, err
	}
	total := 0
	for {
		rows, err := r.source.ChangedGenres(ctx, since, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}
		docs := make([]Document, 0, len(rows))
		for _, genre := range BuildGenreDocs(rows) {
			docs = append(docs, Document{ID: genre.ID, Body: genre})
		}
		indexed, err := r.sink.Bulk(ctx, search.IndexGenres, docs)
		total += indexed
		if err != nil {
			return total, err
		}
		since = rows[len(rows)-1].Modified
		if err := r.state.SetCheckpoint(ctx, search.IndexGenres, since); err != nil {
			return total, err
		}
		if len(rows) < r.batchSize {
			return total, nil
		}
	}
}

func (r *Runner) syncPersons(ctx context.Context) (int, error) {
	since, err := r.state.Checkpoint(ctx, search.IndexPersons)
	if err != nil {
		return 0, err
	}
	total := 0
	for {
		rows, err := r.source.ChangedPersons(ctx, since, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}
		docs := make([]Document, 0, len(rows))
		for _, person := range BuildPersonDocs(rows) {
			docs = append(docs, Document{ID: person.ID, Body: person})
		}
		indexed, err := r.sink.Bulk(ctx, search.IndexPersons, docs)
		total += indexed
		if err != nil {
			return total, err
		}
		since = rows[len(rows)-1].Modified
		if err := r.state.SetCheckpoint(ctx, search.IndexPersons, since); err != nil {
			return total, err
		}
		if len(rows) < r.batchSize {
			return total, nil
		}
	}
}

// syncMovies resolves changed film ids first, then re-reads the full
// join for those films. A film counts as changed when the film itself,
// a linked person or a linked genre was modified.
func (r *Runner) syncMovies(ctx context.Context) (int, error) {
	since, err := r.state.Checkpoint(ctx, search.IndexMovies)
	if err != nil {
		return 0, err
	}
	total := 0
	for {
		changed, err := r.source.ChangedFilms(ctx, since, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(changed) == 0 {
			return total, nil
		}
		ids := make([]string, len(changed))
		for i, change := range changed {
			ids[i] = change.ID
		}
		rows, err := r.source.FilmRows(ctx, ids)
		if err != nil {
			return total, err
		}
		docs := make([]Document, 0, len(changed))
		for _, film := range BuildFilmDocs(rows) {
			docs = append(docs, Document{ID: film.ID, Body: film})
		}
		indexed, err := r.sink.Bulk(ctx, search.IndexMovies, docs)
		total += indexed
		if err != nil {
			return total, err
		}
		since = changed[len(changed)-1].Modified
		if err := r.state.SetCheckpoint(ctx, search.IndexMovies, since); err != nil {
			return total, err
		}
		if len(changed) < r.batchSize {
			return total, nil
		}
	}
}
