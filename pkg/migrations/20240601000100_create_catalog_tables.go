package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			`CREATE TABLE authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				date_of_birth TIMESTAMPTZ,
				date_of_death TIMESTAMPTZ
			)`,
			`CREATE INDEX ix_authors_last_name_first_name ON authors (last_name, first_name)`,
			// A language may be saved without a name.
			`CREATE TABLE languages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT
			)`,
			`CREATE TABLE genres (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_genres_name ON genres (name COLLATE NOCASE)`,
			`CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				author_id INTEGER REFERENCES authors (id) ON DELETE SET NULL,
				summary TEXT NOT NULL DEFAULT '',
				isbn TEXT NOT NULL,
				language_id INTEGER REFERENCES languages (id) ON DELETE SET NULL
			)`,
			`CREATE UNIQUE INDEX ux_books_isbn ON books (isbn)`,
			`CREATE INDEX ix_books_author_id ON books (author_id)`,
			`CREATE INDEX ix_books_language_id ON books (language_id)`,
			`CREATE INDEX ix_books_title ON books (title)`,
			`CREATE TABLE book_genres (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				genre_id INTEGER REFERENCES genres (id) ON DELETE CASCADE NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_book_genres_book_id_genre_id ON book_genres (book_id, genre_id)`,
			`CREATE INDEX ix_book_genres_genre_id ON book_genres (genre_id)`,
			`CREATE TABLE book_instances (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER REFERENCES books (id) ON DELETE RESTRICT NOT NULL,
				imprint TEXT NOT NULL,
				due_back TIMESTAMPTZ,
				status TEXT NOT NULL DEFAULT 'm' CHECK (status IN ('m', 'o', 'a', 'r')),
				borrower_id INTEGER REFERENCES users (id) ON DELETE SET NULL
			)`,
			`CREATE INDEX ix_book_instances_book_id ON book_instances (book_id)`,
			`CREATE INDEX ix_book_instances_status_due_back ON book_instances (status, due_back)`,
			`CREATE INDEX ix_book_instances_borrower_id ON book_instances (borrower_id)`,
		)
	}

	down := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			"DROP TABLE IF EXISTS book_instances",
			"DROP TABLE IF EXISTS book_genres",
			"DROP TABLE IF EXISTS books",
			"DROP TABLE IF EXISTS genres",
			"DROP TABLE IF EXISTS languages",
			"DROP TABLE IF EXISTS authors",
		)
	}

	Migrations.MustRegister(up, down)
}
