package domain

// PersonFilm links a person to one film together with the roles held in it.
type PersonFilm struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// Person is a film participant as stored in the persons index. Films is
// derived from the movies index rather than stored with the person
// document, so it stays out of indexed JSON when empty.
type Person struct {
	ID       string       `json:"id"`
	FullName string       `json:"full_name"`
	Films    []PersonFilm `json:"films,omitempty"`
}
