/*
Package cache implements a small SQLite database recording which artifacts
were produced from which inputs, so unchanged images don't need converting
again.

An entry is keyed by the absolute output path and stores the SHA-1 of the
input image, a string describing the conversion mode and the SHA-1 of the
artifact that was written.
*/
package cache

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3" // register driver
)

// Cache is the conversion cache
type Cache struct {
	db *sql.DB
}

// New opens or creates the cache database in file
func New(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	// Batch workers share the handle, serialise writes
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS artifact (output TEXT PRIMARY KEY NOT NULL, input_sha1 TEXT NOT NULL, mode TEXT NOT NULL, output_sha1 TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db: db,
	}, nil
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Sum returns the hex-encoded SHA-1 of b
func Sum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

func sumFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Fresh reports whether output was previously produced from an input with
// the same checksum using the same mode, and is still unmodified on disk
func (c *Cache) Fresh(output, input, mode string) (bool, error) {
	var storedInput, storedMode, storedOutput string
	switch err := c.db.QueryRow("SELECT input_sha1, mode, output_sha1 FROM artifact WHERE output = ?", output).Scan(&storedInput, &storedMode, &storedOutput); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
	default:
		return false, err
	}

	if storedInput != input || storedMode != mode {
		return false, nil
	}

	sum, err := sumFile(output)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return sum == storedOutput, nil
}

// Put records that output, with checksum sum, was produced from input using
// mode
func (c *Cache) Put(output, input, mode, sum string) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO artifact (output, input_sha1, mode, output_sha1) VALUES (?, ?, ?, ?)", output, input, mode, sum); err != nil {
		return err
	}
	return nil
}
