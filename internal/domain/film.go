package domain

// Credit roles a person can hold on a film.
const (
	RoleActor    = "actor"
	RoleDirector = "director"
	RoleWriter   = "writer"
)

// Roles lists every credit role in the order filmography roles are reported.
var Roles = []string{RoleActor, RoleDirector, RoleWriter}

// FilmPerson is a credited participant embedded in a film document.
type FilmPerson struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Film is a filmwork as stored in the movies index. The *Names slices
// denormalize credited names for full-text search and role derivation.
type Film struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    *string      `json:"description"`
	IMDBRating     *float64     `json:"imdb_rating"`
	Actors         []FilmPerson `json:"actors"`
	Writers        []FilmPerson `json:"writers"`
	Directors      []FilmPerson `json:"directors"`
	Genres         []string     `json:"genres"`
	ActorsNames    []string     `json:"actors_names"`
	WritersNames   []string     `json:"writers_names"`
	DirectorsNames []string     `json:"directors_names"`
}

// NamesForRole returns the denormalized name list for a credit role.
func (f Film) NamesForRole(role string) []string {
	switch role {
	case RoleActor:
		return f.ActorsNames
	case RoleDirector:
		return f.DirectorsNames
	case RoleWriter:
		return f.WritersNames
	default:
		return nil
	}
}
