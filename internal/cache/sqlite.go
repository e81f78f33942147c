package cache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"owl/internal/mir"
)

// SQLiteFile is the database name inside the cache directory.
const SQLiteFile = "owl-cache.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS functions (
	crate     TEXT    NOT NULL,
	file_hash TEXT    NOT NULL,
	body_hash TEXT    NOT NULL,
	schema    INTEGER NOT NULL,
	payload   BLOB    NOT NULL,
	PRIMARY KEY (crate, file_hash, body_hash)
)`

// SQLiteBackend keeps every crate in one database, one row per function.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database in dir.
func OpenSQLite(dir string) (*SQLiteBackend, error) {
	path := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; modernc serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: init %s: %w", path, err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file.
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) Load(crate string) (*Data, error) {
	rows, err := b.db.Query(
		`SELECT file_hash, body_hash, schema, payload FROM functions WHERE crate = ?`, crate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := NewData()
	for rows.Next() {
		var (
			fileHash, bodyHash string
			schema             uint16
			payload            []byte
		)
		if err := rows.Scan(&fileHash, &bodyHash, &schema, &payload); err != nil {
			return nil, err
		}
		if schema != SchemaVersion {
			return nil, ErrSchemaMismatch
		}
		var fn mir.Function
		if err := unmarshalFunction(payload, &fn); err != nil {
			return nil, fmt.Errorf("cache: %s/%s: %w", fileHash, bodyHash, err)
		}
		byBody := data.Entries[fileHash]
		if byBody == nil {
			byBody = make(map[string]mir.Function)
			data.Entries[fileHash] = byBody
		}
		byBody[bodyHash] = fn
	}
	return data, rows.Err()
}

func (b *SQLiteBackend) Save(crate string, data *Data) (err error) {
	tx, err := b.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(`DELETE FROM functions WHERE crate = ?`, crate); err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO functions (crate, file_hash, body_hash, schema, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for fileHash, byBody := range data.Entries {
		for bodyHash, fn := range byBody {
			payload, mErr := marshalFunction(&fn)
			if mErr != nil {
				return mErr
			}
			if _, err = stmt.Exec(crate, fileHash, bodyHash, SchemaVersion, payload); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Drop() error {
	_, err := b.db.Exec(`DELETE FROM functions`)
	return err
}

func (b *SQLiteBackend) Close() error { return b.db.Close() }

// Crates lists the crates with stored functions and their function counts.
func (b *SQLiteBackend) Crates() (map[string]int, error) {
	rows, err := b.db.Query(`SELECT crate, COUNT(*) FROM functions GROUP BY crate`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			crate string
			n     int
		)
		if err := rows.Scan(&crate, &n); err != nil {
			return nil, err
		}
		out[crate] = n
	}
	return out, rows.Err()
}

func marshalFunction(fn *mir.Function) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(fn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalFunction(payload []byte, fn *mir.Function) error {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	return dec.Decode(fn)
}
