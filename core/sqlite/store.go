package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FocuswithJustin/VerseTip/core/corpus"
	"github.com/FocuswithJustin/VerseTip/core/errors"
)

func init() {
	corpus.RegisterFormat(".db", loadCorpus)
	corpus.RegisterFormat(".sqlite", loadCorpus)
}

// Position columns keep source order, which need not follow the numbers.
const schema = `
DROP TABLE IF EXISTS verses;
DROP TABLE IF EXISTS chapters;
DROP TABLE IF EXISTS books;
CREATE TABLE books (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE
);
CREATE TABLE chapters (
	book_id  INTEGER NOT NULL REFERENCES books(id),
	position INTEGER NOT NULL,
	number   INTEGER NOT NULL,
	PRIMARY KEY (book_id, number)
);
CREATE TABLE verses (
	book_id  INTEGER NOT NULL,
	chapter  INTEGER NOT NULL,
	position INTEGER NOT NULL,
	number   INTEGER NOT NULL,
	text     TEXT NOT NULL,
	PRIMARY KEY (book_id, chapter, number),
	FOREIGN KEY (book_id, chapter) REFERENCES chapters(book_id, number)
);
`

// WriteCorpus replaces the corpus tables in db with c, in one transaction.
func WriteCorpus(ctx context.Context, db *sql.DB, c *corpus.Corpus) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create schema")
	}

	bookStmt, err := tx.PrepareContext(ctx, `INSERT INTO books (id, name) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare books insert")
	}
	defer bookStmt.Close()

	chapterStmt, err := tx.PrepareContext(ctx, `INSERT INTO chapters (book_id, position, number) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare chapters insert")
	}
	defer chapterStmt.Close()

	verseStmt, err := tx.PrepareContext(ctx, `INSERT INTO verses (book_id, chapter, position, number, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare verses insert")
	}
	defer verseStmt.Close()

	for i, b := range c.Books() {
		if _, err := bookStmt.ExecContext(ctx, i, b.Name); err != nil {
			return errors.Wrapf(err, "insert book %q", b.Name)
		}
		for j, ch := range b.Chapters {
			if _, err := chapterStmt.ExecContext(ctx, i, j, ch.Number); err != nil {
				return errors.Wrapf(err, "insert %s %d", b.Name, ch.Number)
			}
			for k, v := range ch.Verses {
				if _, err := verseStmt.ExecContext(ctx, i, ch.Number, k, v.Number, v.Text); err != nil {
					return errors.Wrapf(err, "insert %s %d:%d", b.Name, ch.Number, v.Number)
				}
			}
		}
	}

	return tx.Commit()
}

// ReadCorpus rebuilds the corpus stored in db by WriteCorpus.
func ReadCorpus(ctx context.Context, db *sql.DB) (*corpus.Corpus, error) {
	var books []*corpus.Book
	byID := make(map[int64]*corpus.Book)
	chapters := make(map[int64]map[int]*corpus.Chapter)

	rows, err := db.QueryContext(ctx, `SELECT id, name FROM books ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query books")
	}
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan book")
		}
		b := &corpus.Book{Name: name}
		books = append(books, b)
		byID[id] = b
		chapters[id] = make(map[int]*corpus.Chapter)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx, `SELECT book_id, number FROM chapters ORDER BY book_id, position`)
	if err != nil {
		return nil, errors.Wrap(err, "query chapters")
	}
	for rows.Next() {
		var (
			bookID int64
			number int
		)
		if err := rows.Scan(&bookID, &number); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan chapter")
		}
		b, ok := byID[bookID]
		if !ok {
			rows.Close()
			return nil, errors.NewValidation("chapters.book_id", fmt.Sprintf("unknown book id %d", bookID))
		}
		ch := &corpus.Chapter{Number: number}
		b.Chapters = append(b.Chapters, ch)
		chapters[bookID][number] = ch
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx, `SELECT book_id, chapter, number, text FROM verses ORDER BY book_id, chapter, position`)
	if err != nil {
		return nil, errors.Wrap(err, "query verses")
	}
	for rows.Next() {
		var (
			bookID          int64
			chapter, number int
			text            string
		)
		if err := rows.Scan(&bookID, &chapter, &number, &text); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan verse")
		}
		ch, ok := chapters[bookID][chapter]
		if !ok {
			rows.Close()
			return nil, errors.NewValidation("verses.chapter",
				fmt.Sprintf("unknown chapter %d for book id %d", chapter, bookID))
		}
		ch.Verses = append(ch.Verses, &corpus.Verse{Number: number, Text: text})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return corpus.New(books)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.Wrap(err, "iterate rows")
	}
	return rows.Close()
}

// SaveCorpus writes c to a new or existing database file at path.
func SaveCorpus(ctx context.Context, path string, c *corpus.Corpus) error {
	db, err := Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer db.Close()
	return WriteCorpus(ctx, db, c)
}

func loadCorpus(ctx context.Context, path string) (*corpus.Corpus, error) {
	db, err := OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer db.Close()
	return ReadCorpus(ctx, db)
}
