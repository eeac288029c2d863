package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Extractor reads changed catalog rows from the content schema.
type Extractor struct {
	pool *pgxpool.Pool
}

// NewExtractor returns an Extractor over the given pool.
func NewExtractor(pool *pgxpool.Pool) *Extractor {
	return &Extractor{pool: pool}
}

// ChangedID is a document id together with the modification time that
// scheduled it for reindexing.
type ChangedID struct {
	ID       string
	Modified time.Time
}

// FilmRow is one flat row of the film join: film attributes repeated
// per credit and per genre. BuildFilmDocs folds the repetition away.
type FilmRow struct {
	ID          string
	Title       string
	Description *string
	Rating      *float64
	Role        *string
	PersonID    *string
	PersonName  *string
	Genre       *string
}

// GenreRow is one changed genre.
type GenreRow struct {
	ID          string
	Name        string
	Description *string
	Modified    time.Time
}

// PersonRow is one changed person.
type PersonRow struct {
	ID       string
	FullName string
	Modified time.Time
}

// ChangedFilms returns films touched after the checkpoint, directly or
// through a linked person or genre, oldest change first.
func (e *Extractor) ChangedFilms(ctx context.Context, since time.Time, limit int) ([]ChangedID, error) {
	const query = `SELECT id, changed FROM (
			SELECT fw.id, GREATEST(fw.modified, MAX(p.modified), MAX(g.modified)) AS changed
			FROM content.film_work fw
			LEFT JOIN content.person_film_work pfw ON pfw.film_work_id = fw.id
			LEFT JOIN content.person p ON p.id = pfw.person_id
			LEFT JOIN content.genre_film_work gfw ON gfw.film_work_id = fw.id
			LEFT JOIN content.genre g ON g.id = gfw.genre_id
			GROUP BY fw.id
		) film_changes
		WHERE changed > $1
		ORDER BY changed, id
		LIMIT $2`
	rows, err := e.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("etl: query changed films: %w", err)
	}
	defer rows.Close()

	var changed []ChangedID
	for rows.Next() {
		var c ChangedID
		if err := rows.Scan(&c.ID, &c.Modified); err != nil {
			return nil, fmt.Errorf("etl: scan changed film: %w", err)
		}
		changed = append(changed, c)
	}
	return changed, rows.Err()
}

// FilmRows fetches the flat film join for the given film ids.
func (e *Extractor) FilmRows(ctx context.Context, ids []string) ([]FilmRow, error) {
	const query = `SELECT fw.id, fw.title, fw.description, fw.rating,
			pfw.role, p.id, p.full_name, g.name
		FROM content.film_work fw
		LEFT JOIN content.person_film_work pfw ON pfw.film_work_id = fw.id
		LEFT JOIN content.person p ON p.id = pfw.person_id
		LEFT JOIN content.genre_film_work gfw ON gfw.film_work_id = fw.id
		LEFT JOIN content.genre g ON g.id = gfw.genre_id
		WHERE fw.id = ANY($1)
		ORDER BY fw.id`
	rows, err := e.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("etl: query film rows: %w", err)
	}
	defer rows.Close()

	var films []FilmRow
	for rows.Next() {
		var f FilmRow
		if err := rows.Scan(&f.ID, &f.Title, &f.Description, &f.Rating, &f.Role, &f.PersonID, &f.PersonName, &f.Genre); err != nil {
			return nil, fmt.Errorf("etl: scan film row: %w", err)
		}
		films = append(films, f)
	}
	return films, rows.Err()
}

// ChangedGenres returns genres modified after the checkpoint, oldest
// first.
func (e *Extractor) ChangedGenres(ctx context.Context, since time.Time, limit int) ([]GenreRow, error) {
	const query = `SELECT id, name, description, modified
		FROM content.genre
		WHERE modified > $1
		ORDER BY modified, id
		LIMIT $2`
	rows, err := e.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("etl: query changed genres: %w", err)
	}
	defer rows.Close()

	var genres []GenreRow
	for rows.Next() {
		var g GenreRow
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Modified); err != nil {
			return nil, fmt.Errorf("etl: scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// ChangedPersons returns persons modified after the checkpoint, oldest
// first.
func (e *Extractor) ChangedPersons(ctx context.Context, since time.Time, limit int) ([]PersonRow, error) {
	const query = `SELECT id, full_name, modified
		FROM content.person
		WHERE modified > $1
		ORDER BY modified, id
		LIMIT $2`
	rows, err := e.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("etl: query changed persons: %w", err)
	}
	defer rows.Close()

	var persons []PersonRow
	for rows.Next() {
		var p PersonRow
		if err := rows.Scan(&p.ID, &p.FullName, &p.Modified); err != nil {
			return nil, fmt.Errorf("etl: scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// Ping verifies database connectivity.
func (e *Extractor) Ping(ctx context.Context) error {
	return e.pool.Ping(ctx)
}
