package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kinohub/moviesearch/pkg/client"
	"github.com/kinohub/moviesearch/pkg/config"
)

var buildVersion = "dev"

const requestTimeout = 15 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "films":
		err = commandFilms(args)
	case "genres":
		err = commandGenres(args)
	case "persons":
		err = commandPersons(args)
	case "health":
		err = commandHealth(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandFilms(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: moviectl films [list|search|get]")
	}
	switch args[0] {
	case "list":
		return filmList(args[1:])
	case "search":
		return filmSearch(args[1:])
	case "get":
		return filmGet(args[1:])
	default:
		return fmt.Errorf("unknown films command: %s", args[0])
	}
}

func filmList(args []string) error {
	fs := flag.NewFlagSet("films list", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	genreID := fs.String("genre", "", "Genre identifier to filter by")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	sortBy := fs.String("sort", "", "Comma-separated sort fields, -field for descending")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	films, err := cli.Films(ctx, listParams(*page, *size, *sortBy), *genreID)
	if err != nil {
		return err
	}
	printFilms(films)
	return nil
}

func filmSearch(args []string) error {
	fs := flag.NewFlagSet("films search", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	query := fs.String("query", "", "Search text")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	sortBy := fs.String("sort", "", "Comma-separated sort fields, -field for descending")
	fs.Parse(args)

	if strings.TrimSpace(*query) == "" {
		return errors.New("--query is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	films, err := cli.SearchFilms(ctx, *query, listParams(*page, *size, *sortBy))
	if err != nil {
		return err
	}
	printFilms(films)
	return nil
}

func filmGet(args []string) error {
	fs := flag.NewFlagSet("films get", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	id := fs.String("id", "", "Film identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	film, err := cli.Film(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("uuid:\t%s\n", film.UUID)
	fmt.Printf("title:\t%s\n", film.Title)
	fmt.Printf("rating:\t%s\n", formatRating(film.IMDBRating))
	if film.Description != nil && *film.Description != "" {
		fmt.Printf("description:\t%s\n", *film.Description)
	}
	genres := make([]string, 0, len(film.Genre))
	for _, genre := range film.Genre {
		genres = append(genres, genre.Name)
	}
	fmt.Printf("genres:\t%s\n", strings.Join(genres, ", "))
	fmt.Printf("actors:\t%s\n", joinNames(film.Actors))
	fmt.Printf("writers:\t%s\n", joinNames(film.Writers))
	fmt.Printf("directors:\t%s\n", joinNames(film.Directors))
	return nil
}

func commandGenres(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: moviectl genres [list|get]")
	}
	switch args[0] {
	case "list":
		return genreList(args[1:])
	case "get":
		return genreGet(args[1:])
	default:
		return fmt.Errorf("unknown genres command: %s", args[0])
	}
}

func genreList(args []string) error {
	fs := flag.NewFlagSet("genres list", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	genres, err := cli.Genres(ctx, listParams(*page, *size, ""))
	if err != nil {
		return err
	}
	for _, genre := range genres {
		fmt.Printf("%s\t%s\n", genre.UUID, genre.Name)
	}
	return nil
}

func genreGet(args []string) error {
	fs := flag.NewFlagSet("genres get", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	id := fs.String("id", "", "Genre identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	genre, err := cli.Genre(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("uuid:\t%s\n", genre.UUID)
	fmt.Printf("name:\t%s\n", genre.Name)
	if genre.Description != nil && *genre.Description != "" {
		fmt.Printf("description:\t%s\n", *genre.Description)
	}
	return nil
}

func commandPersons(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: moviectl persons [search|get|films]")
	}
	switch args[0] {
	case "search":
		return personSearch(args[1:])
	case "get":
		return personGet(args[1:])
	case "films":
		return personFilms(args[1:])
	default:
		return fmt.Errorf("unknown persons command: %s", args[0])
	}
}

func personSearch(args []string) error {
	fs := flag.NewFlagSet("persons search", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	query := fs.String("query", "", "Search text")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	fs.Parse(args)

	if strings.TrimSpace(*query) == "" {
		return errors.New("--query is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	persons, err := cli.SearchPersons(ctx, *query, listParams(*page, *size, ""))
	if err != nil {
		return err
	}
	for _, person := range persons {
		fmt.Printf("%s\t%s\t%d films\n", person.UUID, person.FullName, len(person.Films))
	}
	return nil
}

func personGet(args []string) error {
	fs := flag.NewFlagSet("persons get", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	id := fs.String("id", "", "Person identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	person, err := cli.Person(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("uuid:\t%s\n", person.UUID)
	fmt.Printf("name:\t%s\n", person.FullName)
	for _, film := range person.Films {
		fmt.Printf("%s\t%s\n", film.UUID, strings.Join(film.Roles, ", "))
	}
	return nil
}

func personFilms(args []string) error {
	fs := flag.NewFlagSet("persons films", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	id := fs.String("id", "", "Person identifier")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	sortBy := fs.String("sort", "", "Comma-separated sort fields, -field for descending")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	films, err := cli.PersonFilms(ctx, *id, listParams(*page, *size, *sortBy))
	if err != nil {
		return err
	}
	printFilms(films)
	return nil
}

func commandHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	report, err := cli.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("status: %s\n", report.Status)
	names := make([]string, 0, len(report.Components))
	for name := range report.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		component := report.Components[name]
		if component.Error != "" {
			fmt.Printf("%s: %s (%s)\n", name, component.Status, component.Error)
			continue
		}
		fmt.Printf("%s: %s\n", name, component.Status)
	}
	if report.Status != "ok" {
		return errors.New("service degraded")
	}
	return nil
}

func newClient(base string) (*client.Client, error) {
	if strings.TrimSpace(base) == "" {
		base = config.GetString("API_BASE_URL", "http://localhost:8000")
	}
	return client.New(base)
}

func listParams(page, size int, sortBy string) client.ListParams {
	params := client.ListParams{PageNumber: page, PageSize: size}
	for _, field := range strings.Split(sortBy, ",") {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			params.Sort = append(params.Sort, trimmed)
		}
	}
	return params
}

func printFilms(films []client.FilmShort) {
	for _, film := range films {
		fmt.Printf("%s\t%s\t%s\n", film.UUID, film.Title, formatRating(film.IMDBRating))
	}
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "-"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64)
}

func joinNames(credits []client.FilmPerson) string {
	names := make([]string, 0, len(credits))
	for _, credit := range credits {
		names = append(names, credit.FullName)
	}
	return strings.Join(names, ", ")
}

func printUsage() {
	fmt.Printf("moviectl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	moviectl films list [--genre <genre-id>] [--page N] [--size N] [--sort fields]
	moviectl films search --query <text> [--page N] [--size N] [--sort fields]
	moviectl films get --id <film-id>
	moviectl genres list [--page N] [--size N]
	moviectl genres get --id <genre-id>
	moviectl persons search --query <text> [--page N] [--size N]
	moviectl persons get --id <person-id>
	moviectl persons films --id <person-id> [--page N] [--size N] [--sort fields]
	moviectl health
	moviectl version

The API base URL comes from --api, then API_BASE_URL, then http://localhost:8000.
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
