package etl

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func fltPtr(f float64) *float64 { return &f }

func TestBuildFilmDocsFoldsJoinRows(t *testing.T) {
	rows := []FilmRow{
		{ID: "film-1", Title: "Alien", Rating: fltPtr(8.5), Role: strPtr("actor"), PersonID: strPtr("p-1"), PersonName: strPtr("Sigourney Weaver"), Genre: strPtr("Horror")},
		{ID: "film-1", Title: "Alien", Rating: fltPtr(8.5), Role: strPtr("actor"), PersonID: strPtr("p-1"), PersonName: strPtr("Sigourney Weaver"), Genre: strPtr("Sci-Fi")},
		{ID: "film-1", Title: "Alien", Rating: fltPtr(8.5), Role: strPtr("director"), PersonID: strPtr("p-2"), PersonName: strPtr("Ridley Scott"), Genre: strPtr("Horror")},
		{ID: "film-1", Title: "Alien", Rating: fltPtr(8.5), Role: strPtr("director"), PersonID: strPtr("p-2"), PersonName: strPtr("Ridley Scott"), Genre: strPtr("Sci-Fi")},
		{ID: "film-2", Title: "Duel", Rating: nil},
	}

	docs := BuildFilmDocs(rows)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	alien := docs[0]
	if alien.ID != "film-1" || alien.Title != "Alien" {
		t.Fatalf("unexpected film: %+v", alien)
	}
	if !reflect.DeepEqual(alien.Genres, []string{"Horror", "Sci-Fi"}) {
		t.Fatalf("unexpected genres: %v", alien.Genres)
	}
	if len(alien.Actors) != 1 || alien.Actors[0].Name != "Sigourney Weaver" {
		t.Fatalf("unexpected actors: %v", alien.Actors)
	}
	if len(alien.Directors) != 1 || alien.Directors[0].ID != "p-2" {
		t.Fatalf("unexpected directors: %v", alien.Directors)
	}
	if !reflect.DeepEqual(alien.ActorsNames, []string{"Sigourney Weaver"}) {
		t.Fatalf("unexpected actors names: %v", alien.ActorsNames)
	}
	if len(alien.Writers) != 0 || len(alien.WritersNames) != 0 {
		t.Fatalf("expected no writers, got %v", alien.Writers)
	}

	duel := docs[1]
	if duel.ID != "film-2" || duel.IMDBRating != nil {
		t.Fatalf("unexpected film: %+v", duel)
	}
	if duel.Genres == nil || len(duel.Genres) != 0 {
		t.Fatalf("expected empty genres slice, got %v", duel.Genres)
	}
}

func TestBuildFilmDocsSortsCreditsByName(t *testing.T) {
	rows := []FilmRow{
		{ID: "film-1", Title: "Fargo", Role: strPtr("writer"), PersonID: strPtr("p-2"), PersonName: strPtr("Joel Coen")},
		{ID: "film-1", Title: "Fargo", Role: strPtr("writer"), PersonID: strPtr("p-1"), PersonName: strPtr("Ethan Coen")},
	}

	docs := BuildFilmDocs(rows)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if !reflect.DeepEqual(docs[0].WritersNames, []string{"Ethan Coen", "Joel Coen"}) {
		t.Fatalf("unexpected writer order: %v", docs[0].WritersNames)
	}
}

func TestBuildFilmDocsIgnoresUnknownRoles(t *testing.T) {
	rows := []FilmRow{
		{ID: "film-1", Title: "Alien", Role: strPtr("producer"), PersonID: strPtr("p-1"), PersonName: strPtr("Somebody")},
	}

	docs := BuildFilmDocs(rows)
	if len(docs[0].Actors)+len(docs[0].Directors)+len(docs[0].Writers) != 0 {
		t.Fatalf("unexpected credits: %+v", docs[0])
	}
}

func TestBuildGenreDocs(t *testing.T) {
	docs := BuildGenreDocs([]GenreRow{
		{ID: "genre-1", Name: "Drama", Description: strPtr("Serious stories")},
		{ID: "genre-2", Name: "Comedy"},
	})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Name != "Drama" || *docs[0].Description != "Serious stories" {
		t.Fatalf("unexpected genre: %+v", docs[0])
	}
	if docs[1].Description != nil {
		t.Fatalf("expected nil description, got %v", docs[1].Description)
	}
}

func TestBuildPersonDocsCarryNoFilmography(t *testing.T) {
	docs := BuildPersonDocs([]PersonRow{{ID: "person-1", FullName: "Ridley Scott"}})
	if len(docs) != 1 || docs[0].FullName != "Ridley Scott" {
		t.Fatalf("unexpected person: %+v", docs)
	}
	if docs[0].Films != nil {
		t.Fatalf("person documents must not embed films, got %v", docs[0].Films)
	}
}
