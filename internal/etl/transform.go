package etl

import (
	"sort"

	"github.com/kinohub/moviesearch/internal/domain"
)

// BuildFilmDocs folds flat film join rows into index documents. Rows of
// one film must be adjacent, which the extractor's ordering guarantees.
// Credits and genres are deduplicated and sorted so repeated runs over
// the same data produce identical documents.
func BuildFilmDocs(rows []FilmRow) []domain.Film {
	type filmAccumulator struct {
		film    *domain.Film
		genres  map[string]bool
		credits map[string]map[string]string
	}

	order := make([]string, 0)
	byID := make(map[string]*filmAccumulator)
	for _, row := range rows {
		acc, ok := byID[row.ID]
		if !ok {
			acc = &filmAccumulator{
				film: &domain.Film{
					ID:          row.ID,
					Title:       row.Title,
					Description: row.Description,
					IMDBRating:  row.Rating,
				},
				genres: make(map[string]bool),
				credits: map[string]map[string]string{
					domain.RoleActor:    {},
					domain.RoleDirector: {},
					domain.RoleWriter:   {},
				},
			}
			byID[row.ID] = acc
			order = append(order, row.ID)
		}
		if row.Genre != nil {
			acc.genres[*row.Genre] = true
		}
		if row.Role != nil && row.PersonID != nil && row.PersonName != nil {
			if credits, ok := acc.credits[*row.Role]; ok {
				credits[*row.PersonID] = *row.PersonName
			}
		}
	}

	docs := make([]domain.Film, 0, len(order))
	for _, id := range order {
		acc := byID[id]
		film := acc.film
		film.Genres = sortedKeys(acc.genres)
		film.Actors = sortedCredits(acc.credits[domain.RoleActor])
		film.Directors = sortedCredits(acc.credits[domain.RoleDirector])
		film.Writers = sortedCredits(acc.credits[domain.RoleWriter])
		film.ActorsNames = creditNames(film.Actors)
		film.DirectorsNames = creditNames(film.Directors)
		film.WritersNames = creditNames(film.Writers)
		docs = append(docs, *film)
	}
	return docs
}

// BuildGenreDocs converts changed genre rows into index documents.
func BuildGenreDocs(rows []GenreRow) []domain.Genre {
	docs := make([]domain.Genre, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, domain.Genre{ID: row.ID, Name: row.Name, Description: row.Description})
	}
	return docs
}

// BuildPersonDocs converts changed person rows into index documents.
// Filmography is not stored with the person, the read API derives it
// from the movies index.
func BuildPersonDocs(rows []PersonRow) []domain.Person {
	docs := make([]domain.Person, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, domain.Person{ID: row.ID, FullName: row.FullName})
	}
	return docs
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedCredits(byID map[string]string) []domain.FilmPerson {
	credits := make([]domain.FilmPerson, 0, len(byID))
	for id, name := range byID {
		credits = append(credits, domain.FilmPerson{ID: id, Name: name})
	}
	sort.Slice(credits, func(i, j int) bool {
		if credits[i].Name != credits[j].Name {
			return credits[i].Name < credits[j].Name
		}
		return credits[i].ID < credits[j].ID
	})
	return credits
}

func creditNames(credits []domain.FilmPerson) []string {
	names := make([]string, 0, len(credits))
	for _, credit := range credits {
		names = append(names, credit.Name)
	}
	return names
}
