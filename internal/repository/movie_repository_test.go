package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestMovieFilterSQL(t *testing.T) {
	cases := []struct {
		name string
		f    model.MovieFilter
		cond string
		args []any
	}{
		{"empty", model.MovieFilter{}, "1=1", []any{}},
		{"title is lowered and escaped", model.MovieFilter{Title: "100%_Fun"},
			"LOWER(m.title) LIKE ?", []any{`%100\%\_fun%`}},
		{"genres deduplicated", model.MovieFilter{GenreIDs: []uint64{2, 1, 2}},
			"m.id IN (SELECT mg.movie_id FROM movie_genres mg WHERE mg.genre_id IN (?,?))", []any{uint64(2), uint64(1)}},
		{"all dimensions", model.MovieFilter{Title: "x", GenreIDs: []uint64{1}, ActorIDs: []uint64{3, 4}},
			"LOWER(m.title) LIKE ? AND " +
				"m.id IN (SELECT mg.movie_id FROM movie_genres mg WHERE mg.genre_id IN (?)) AND " +
				"m.id IN (SELECT ma.movie_id FROM movie_actors ma WHERE ma.actor_id IN (?,?))",
			[]any{"%x%", uint64(1), uint64(3), uint64(4)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cond, args := movieFilterSQL(tc.f)
			assert.Equal(t, tc.cond, cond)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestMovieListLoadsRelations(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(q("FROM movies m WHERE m.id IN (SELECT mg.movie_id FROM movie_genres mg WHERE mg.genre_id IN (?)) ORDER BY m.id")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "duration", "image"}).
			AddRow(10, "The Matrix", "Neo", 136, "").
			AddRow(11, "Heat", "LA", 170, "movies/heat.png"))
	mock.ExpectQuery(q("FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id WHERE mg.movie_id IN (?,?) ORDER BY g.id")).
		WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id", "id", "name"}).
			AddRow(10, 1, "Drama").
			AddRow(11, 1, "Drama").
			AddRow(10, 2, "Action"))
	mock.ExpectQuery(q("FROM movie_actors ma JOIN actors a ON a.id = ma.actor_id WHERE ma.movie_id IN (?,?) ORDER BY a.id")).
		WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id", "id", "first_name", "last_name"}).
			AddRow(10, 5, "Keanu", "Reeves"))

	movies, err := repo.List(context.Background(), model.MovieFilter{GenreIDs: []uint64{1}})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, []model.Genre{{ID: 1, Name: "Drama"}, {ID: 2, Name: "Action"}}, movies[0].Genres)
	assert.Equal(t, []model.Actor{{ID: 5, FirstName: "Keanu", LastName: "Reeves"}}, movies[0].Actors)
	assert.Equal(t, "movies/heat.png", movies[1].Image)
	assert.Equal(t, []model.Actor{}, movies[1].Actors)
}

func TestMovieGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM movies WHERE id = ?")).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "duration", "image"}))

	_, err := NewMovieRepo(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieCreateCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO movies (title, description, duration, image) VALUES (?, ?, ?, ?)")).
		WithArgs("Alien", "Space", 117, nil).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(q("INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?), (?, ?)")).
		WithArgs(7, 1, 7, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	m := model.Movie{Title: "Alien", Description: "Space", Duration: 117,
		Genres: []model.Genre{{ID: 1}, {ID: 2}, {ID: 1}}}
	require.NoError(t, NewMovieRepo(db).Create(context.Background(), &m))
	assert.Equal(t, uint64(7), m.ID)
}

func TestMovieCreateRollsBackOnMissingReference(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO movies")).WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(q("INSERT INTO movie_actors (movie_id, actor_id) VALUES (?, ?)")).
		WithArgs(8, 99).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})
	mock.ExpectRollback()

	m := model.Movie{Title: "Alien", Description: "Space", Duration: 117, Actors: []model.Actor{{ID: 99}}}
	err := NewMovieRepo(db).Create(context.Background(), &m)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestMovieSetImage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMovieRepo(db)

	mock.ExpectExec(q("UPDATE movies SET image = ? WHERE id = ?")).WithArgs("movies/a.png", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetImage(context.Background(), 3, "movies/a.png"))

	mock.ExpectExec(q("UPDATE movies SET image = ? WHERE id = ?")).WithArgs("movies/a.png", 4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT 1 FROM movies WHERE id = ?")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	assert.ErrorIs(t, repo.SetImage(context.Background(), 4, "movies/a.png"), ErrMovieNotFound)
}

func TestGenreCreateAndFindMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewGenreRepo(db)

	mock.ExpectExec(q("INSERT INTO genres (name) VALUES (?)")).WithArgs("Drama").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.ErrorIs(t, repo.Create(context.Background(), &model.Genre{Name: "Drama"}), ErrConflict)

	mock.ExpectQuery(q("SELECT id FROM genres WHERE id IN (?,?,?)")).WithArgs(1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	missing, err := repo.FindMissing(context.Background(), []uint64{1, 2, 3, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, missing)

	missing, err = repo.FindMissing(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
