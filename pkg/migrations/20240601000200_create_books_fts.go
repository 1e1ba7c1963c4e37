package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			`CREATE VIRTUAL TABLE books_fts USING fts5(
				book_id UNINDEXED,
				title,
				summary,
				tokenize = 'unicode61 remove_diacritics 2'
			)`,
			`CREATE TRIGGER books_fts_insert AFTER INSERT ON books BEGIN
				INSERT INTO books_fts (book_id, title, summary) VALUES (new.id, new.title, new.summary);
			END`,
			`CREATE TRIGGER books_fts_update AFTER UPDATE OF title, summary ON books BEGIN
				DELETE FROM books_fts WHERE book_id = old.id;
				INSERT INTO books_fts (book_id, title, summary) VALUES (new.id, new.title, new.summary);
			END`,
			`CREATE TRIGGER books_fts_delete AFTER DELETE ON books BEGIN
				DELETE FROM books_fts WHERE book_id = old.id;
			END`,
			`INSERT INTO books_fts (book_id, title, summary) SELECT id, title, summary FROM books`,
		)
	}

	down := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			"DROP TRIGGER IF EXISTS books_fts_delete",
			"DROP TRIGGER IF EXISTS books_fts_update",
			"DROP TRIGGER IF EXISTS books_fts_insert",
			"DROP TABLE IF EXISTS books_fts",
		)
	}

	Migrations.MustRegister(up, down)
}
