package etl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kinohub/moviesearch/internal/search"
)

type stubSource struct {
	films   []ChangedID
	rows    []FilmRow
	genres  []GenreRow
	persons []PersonRow

	genreSince  []time.Time
	personSince []time.Time
	filmSince   []time.Time
	rowRequests [][]string
}

func (s *stubSource) ChangedFilms(_ context.Context, since time.Time, limit int) ([]ChangedID, error) {
	s.filmSince = append(s.filmSince, since)
	var out []ChangedID
	for _, change := range s.films {
		if !change.Modified.After(since) {
			continue
		}
		out = append(out, change)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubSource) FilmRows(_ context.Context, ids []string) ([]FilmRow, error) {
	s.rowRequests = append(s.rowRequests, ids)
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []FilmRow
	for _, row := range s.rows {
		if wanted[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubSource) ChangedGenres(_ context.Context, since time.Time, limit int) ([]GenreRow, error) {
	s.genreSince = append(s.genreSince, since)
	var out []GenreRow
	for _, row := range s.genres {
		if !row.Modified.After(since) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubSource) ChangedPersons(_ context.Context, since time.Time, limit int) ([]PersonRow, error) {
	s.personSince = append(s.personSince, since)
	var out []PersonRow
	for _, row := range s.persons {
		if !row.Modified.After(since) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type bulkCall struct {
	index string
	ids   []string
}

type stubSink struct {
	calls []bulkCall
	err   error
}

func (s *stubSink) Bulk(_ context.Context, index string, docs []Document) (int, error) {
	call := bulkCall{index: index}
	for _, doc := range docs {
		call.ids = append(call.ids, doc.ID)
	}
	s.calls = append(s.calls, call)
	if s.err != nil {
		return 0, s.err
	}
	return len(docs), nil
}

type stubState struct {
	marks map[string]time.Time
	sets  []time.Time
}

func newStubState() *stubState {
	return &stubState{marks: map[string]time.Time{}}
}

func (s *stubState) Checkpoint(_ context.Context, index string) (time.Time, error) {
	return s.marks[index], nil
}

func (s *stubState) SetCheckpoint(_ context.Context, index string, ts time.Time) error {
	s.marks[index] = ts
	s.sets = append(s.sets, ts)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func modifiedAt(minute int) time.Time {
	return time.Date(2024, 5, 1, 12, minute, 0, 0, time.UTC)
}

func TestSyncOncePagesThroughBacklog(t *testing.T) {
	source := &stubSource{
		genres: []GenreRow{
			{ID: "g1", Name: "Action", Modified: modifiedAt(1)},
			{ID: "g2", Name: "Drama", Modified: modifiedAt(2)},
			{ID: "g3", Name: "Horror", Modified: modifiedAt(3)},
			{ID: "g4", Name: "Comedy", Modified: modifiedAt(4)},
			{ID: "g5", Name: "Sci-Fi", Modified: modifiedAt(5)},
		},
	}
	sink := &stubSink{}
	state := newStubState()
	runner := NewRunner(source, sink, state, discardLogger(), time.Minute, 2)

	if err := runner.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if len(sink.calls) != 3 {
		t.Fatalf("bulk calls = %d, want 3", len(sink.calls))
	}
	wantBatches := [][]string{{"g1", "g2"}, {"g3", "g4"}, {"g5"}}
	for i, want := range wantBatches {
		got := sink.calls[i].ids
		if len(got) != len(want) {
			t.Fatalf("batch %d ids = %v, want %v", i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("batch %d ids = %v, want %v", i, got, want)
			}
		}
	}
	if got := state.marks[search.IndexGenres]; !got.Equal(modifiedAt(5)) {
		t.Fatalf("genre checkpoint = %v, want %v", got, modifiedAt(5))
	}
	if len(state.sets) != 3 {
		t.Fatalf("checkpoint writes = %d, want one per batch", len(state.sets))
	}
}

func TestSyncOnceOrdersDependenciesBeforeMovies(t *testing.T) {
	source := &stubSource{
		genres:  []GenreRow{{ID: "g1", Name: "Action", Modified: modifiedAt(1)}},
		persons: []PersonRow{{ID: "p1", FullName: "Ridley Scott", Modified: modifiedAt(1)}},
		films:   []ChangedID{{ID: "f1", Modified: modifiedAt(1)}},
		rows:    []FilmRow{{ID: "f1", Title: "Alien"}},
	}
	sink := &stubSink{}
	runner := NewRunner(source, sink, newStubState(), discardLogger(), time.Minute, 10)

	if err := runner.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	wantOrder := []string{search.IndexGenres, search.IndexPersons, search.IndexMovies}
	if len(sink.calls) != len(wantOrder) {
		t.Fatalf("bulk calls = %d, want %d", len(sink.calls), len(wantOrder))
	}
	for i, want := range wantOrder {
		if sink.calls[i].index != want {
			t.Fatalf("pass %d hit index %q, want %q", i, sink.calls[i].index, want)
		}
	}
}

func TestSyncOnceResumesFromCheckpoint(t *testing.T) {
	source := &stubSource{
		genres: []GenreRow{
			{ID: "g1", Name: "Action", Modified: modifiedAt(1)},
			{ID: "g2", Name: "Drama", Modified: modifiedAt(8)},
		},
	}
	sink := &stubSink{}
	state := newStubState()
	state.marks[search.IndexGenres] = modifiedAt(5)
	runner := NewRunner(source, sink, state, discardLogger(), time.Minute, 10)

	if err := runner.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if got := source.genreSince[0]; !got.Equal(modifiedAt(5)) {
		t.Fatalf("first genre query since = %v, want stored checkpoint %v", got, modifiedAt(5))
	}
	if len(sink.calls) != 1 || len(sink.calls[0].ids) != 1 || sink.calls[0].ids[0] != "g2" {
		t.Fatalf("bulk calls = %+v, want only g2 re-indexed", sink.calls)
	}
}

func TestSyncOnceRebuildsWholeFilmDocument(t *testing.T) {
	description := "A mining ship answers a distress call."
	role := "actor"
	personID := "p1"
	personName := "Sigourney Weaver"
	genre := "Horror"
	source := &stubSource{
		films: []ChangedID{{ID: "f1", Modified: modifiedAt(2)}},
		rows: []FilmRow{
			{ID: "f1", Title: "Alien", Description: &description, Role: &role, PersonID: &personID, PersonName: &personName, Genre: &genre},
			{ID: "f1", Title: "Alien", Description: &description, Genre: &genre},
		},
	}
	sink := &stubSink{}
	runner := NewRunner(source, sink, newStubState(), discardLogger(), time.Minute, 10)

	if err := runner.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if len(source.rowRequests) != 1 || len(source.rowRequests[0]) != 1 || source.rowRequests[0][0] != "f1" {
		t.Fatalf("row requests = %v, want single fetch for f1", source.rowRequests)
	}
	if len(sink.calls) != 1 || len(sink.calls[0].ids) != 1 || sink.calls[0].ids[0] != "f1" {
		t.Fatalf("bulk calls = %+v, want one folded document for f1", sink.calls)
	}
}

func TestSyncOnceKeepsCommittedCheckpointOnIndexError(t *testing.T) {
	source := &stubSource{
		genres: []GenreRow{{ID: "g1", Name: "Action", Modified: modifiedAt(3)}},
	}
	sink := &stubSink{err: errors.New("bulk rejected")}
	state := newStubState()
	runner := NewRunner(source, sink, state, discardLogger(), time.Minute, 10)

	if err := runner.SyncOnce(context.Background()); err == nil {
		t.Fatal("SyncOnce succeeded, want index error")
	}
	if _, stored := state.marks[search.IndexGenres]; stored {
		t.Fatal("checkpoint advanced past a failed batch")
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(&stubSource{}, &stubSink{}, newStubState(), discardLogger(), time.Hour, 10)
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
