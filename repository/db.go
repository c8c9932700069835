package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DBTX общий интерфейс *sql.DB и *sql.Tx, чтобы репозитории работали
// и внутри транзакции блока
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open открывает SQLite базу и накатывает схему. Путь ":memory:" даёт
// базу в памяти.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite не любит конкурентную запись, а база в памяти живёт ровно одно соединение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func Migrate(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			address TEXT PRIMARY KEY,
			name TEXT UNIQUE,
			balance INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS contracts (
			principal TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			deployer TEXT NOT NULL,
			deployed_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			poster TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			bounty INTEGER NOT NULL,
			worker TEXT,
			submission TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			hash TEXT NOT NULL,
			parent_hash TEXT NOT NULL,
			mined_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS receipts (
			block_height INTEGER NOT NULL,
			tx_index INTEGER NOT NULL,
			tx_id TEXT NOT NULL,
			tx TEXT NOT NULL,
			result TEXT,
			error TEXT NOT NULL DEFAULT '',
			events TEXT NOT NULL,
			PRIMARY KEY (block_height, tx_index)
		);

		CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY,
			account TEXT NOT NULL
		);
	`)

	return err
}
