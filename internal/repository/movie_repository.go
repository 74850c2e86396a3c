package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ErrMovieNotFound is returned when a movie cannot be found in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// MovieRepo encapsulates queries against movies and their genre/actor joins.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// movieFilterSQL compiles a MovieFilter into a WHERE clause over alias m.
// Each relation dimension becomes a set-membership subquery so a movie that
// matches several listed ids is still returned once.
func movieFilterSQL(f model.MovieFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Title != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Title))+"%")
	}
	if ids := uniqueIDs(f.GenreIDs); len(ids) > 0 {
		where = append(where, "m.id IN (SELECT mg.movie_id FROM movie_genres mg WHERE mg.genre_id IN ("+placeholders(len(ids))+"))")
		args = append(args, idArgs(ids)...)
	}
	if ids := uniqueIDs(f.ActorIDs); len(ids) > 0 {
		where = append(where, "m.id IN (SELECT ma.movie_id FROM movie_actors ma WHERE ma.actor_id IN ("+placeholders(len(ids))+"))")
		args = append(args, idArgs(ids)...)
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// List returns the movies matching f, ordered by id, with genres and actors loaded.
func (r *MovieRepo) List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	cond, args := movieFilterSQL(f)
	q := `SELECT m.id, m.title, m.description, m.duration, COALESCE(m.image, '')
		FROM movies m
		WHERE ` + cond + `
		ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Duration, &m.Image); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadMovieRelations(ctx, r.db, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetByID fetches one movie with its relations.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, description, duration, COALESCE(image, '') FROM movies WHERE id = ?`
	var m model.Movie
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Description, &m.Duration, &m.Image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	movies := []model.Movie{m}
	if err := loadMovieRelations(ctx, r.db, movies); err != nil {
		return nil, err
	}
	return &movies[0], nil
}

// Create inserts the movie row and its genre/actor links in one
// transaction.  Only the IDs of m.Genres and m.Actors are read.  A link to a
// genre or actor that does not exist yields ErrInvalidReference and nothing
// is written.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var image any
	if m.Image != "" {
		image = m.Image
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO movies (title, description, duration, image) VALUES (?, ?, ?, ?)`,
		m.Title, m.Description, m.Duration, image)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	if err = insertLinks(ctx, tx, "movie_genres", "genre_id", m.ID, m.GenreIDs()); err != nil {
		return err
	}
	if err = insertLinks(ctx, tx, "movie_actors", "actor_id", m.ID, m.ActorIDs()); err != nil {
		return err
	}
	return nil
}

// SetImage stores the poster path for a movie.
func (r *MovieRepo) SetImage(ctx context.Context, id uint64, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET image = ? WHERE id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("update movie image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged; tell the
		// two cases apart with a lookup.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, table, column string, movieID uint64, ids []uint64) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, 0, len(ids))
	args := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		values = append(values, "(?, ?)")
		args = append(args, movieID, id)
	}
	q := "INSERT INTO " + table + " (movie_id, " + column + ") VALUES " + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// loadMovieRelations fills Genres and Actors for every movie in place using
// one query per relation.
func loadMovieRelations(ctx context.Context, q querier, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(movies))
	ids := make([]uint64, 0, len(movies))
	for i, m := range movies {
		index[m.ID] = i
		ids = append(ids, m.ID)
		movies[i].Genres = []model.Genre{}
		movies[i].Actors = []model.Actor{}
	}
	in := placeholders(len(ids))

	rows, err := q.QueryContext(ctx, `SELECT mg.movie_id, g.id, g.name
		FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		WHERE mg.movie_id IN (`+in+`) ORDER BY g.id`, idArgs(ids)...)
	if err != nil {
		return fmt.Errorf("load movie genres: %w", err)
	}
	for rows.Next() {
		var movieID uint64
		var g model.Genre
		if err := rows.Scan(&movieID, &g.ID, &g.Name); err != nil {
			rows.Close()
			return err
		}
		i := index[movieID]
		movies[i].Genres = append(movies[i].Genres, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT ma.movie_id, a.id, a.first_name, a.last_name
		FROM movie_actors ma JOIN actors a ON a.id = ma.actor_id
		WHERE ma.movie_id IN (`+in+`) ORDER BY a.id`, idArgs(ids)...)
	if err != nil {
		return fmt.Errorf("load movie actors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var movieID uint64
		var a model.Actor
		if err := rows.Scan(&movieID, &a.ID, &a.FirstName, &a.LastName); err != nil {
			return err
		}
		i := index[movieID]
		movies[i].Actors = append(movies[i].Actors, a)
	}
	return rows.Err()
}
