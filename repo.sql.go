package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Statements issued against the libros table. User input
// only ever reaches the database through placeholders.
const (
	queryListBooks  = "SELECT id, titulo, autor, anio FROM libros ORDER BY id"
	queryGetBook    = "SELECT id, titulo, autor, anio FROM libros WHERE id = ?"
	queryInsertBook = "INSERT INTO libros (titulo, autor, anio) VALUES (?, ?, ?)"
	queryUpdateBook = "UPDATE libros SET titulo = ?, autor = ?, anio = ? WHERE id = ?"
	queryDeleteBook = "DELETE FROM libros WHERE id = ?"

	queryMySQLTables  = "SHOW TABLES"
	querySQLiteTables = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
)

var _ BookStorage = (*sqlBookStorage)(nil)

type sqlBookStorage struct {
	logger *zap.Logger
	driver string
	db     *sql.DB
}

// NewSQLBookStorage provides an instance of relational book storage
// on top of an already configured connections pool.
func NewSQLBookStorage(logger *zap.Logger, driver string, db *sql.DB) BookStorage {
	return &sqlBookStorage{
		logger: logger,
		driver: driver,
		db:     db,
	}
}

// BuildDSN builds the driver specific data source name.
func BuildDSN(config *DatabaseConfig) (string, error) {
	switch config.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(config.Host, config.Port)
		mc.User = config.Username
		mc.Passwd = config.Password
		mc.DBName = config.Name
		mc.Timeout = config.DialTimeout
		mc.ReadTimeout = config.ReadTimeout
		mc.WriteTimeout = config.WriteTimeout
		// report matched rows on UPDATE so an identical rewrite is not taken for a missing book.
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	case DriverSQLite:
		return filepath.Clean(config.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", config.Driver)
}

// GetDatabaseClient opens the bounded connections pool and tests it.
func GetDatabaseClient(config *DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildDSN(config)
	if err != nil {
		return nil, err
	}
	if config.Driver == DriverSQLite {
		if err = os.MkdirAll(filepath.Dir(config.Path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create the database folder: %w", err)
		}
	}
	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	timeout := config.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// test connection.
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("test connection failed: %w", err)
	}
	return db, nil
}

// ListAll retrieves every stored book ordered by id.
func (ss *sqlBookStorage) ListAll(ctx context.Context) ([]Book, error) {
	rows, err := ss.db.QueryContext(ctx, queryListBooks)
	if err != nil {
		return nil, storageError("list books", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var book Book
		if err = rows.Scan(&book.ID, &book.Title, &book.Author, &book.Year); err != nil {
			return nil, storageError("scan book", err)
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, storageError("iterate books", err)
	}
	return books, nil
}

// GetByID retrieves a book record based on its ID.
func (ss *sqlBookStorage) GetByID(ctx context.Context, id int64) (Book, error) {
	var book Book
	err := ss.db.QueryRowContext(ctx, queryGetBook, id).Scan(&book.ID, &book.Title, &book.Author, &book.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, storageError("get book", err)
	}
	return book, nil
}

// Create inserts a new book record and returns it with the id assigned by the database.
func (ss *sqlBookStorage) Create(ctx context.Context, in BookInput) (Book, error) {
	result, err := ss.db.ExecContext(ctx, queryInsertBook, in.Title, in.Author, in.Year)
	if err != nil {
		return Book{}, storageError("insert book", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Book{}, storageError("read inserted id", err)
	}
	return in.WithID(id), nil
}

// Update overwrites all fields of an existing book. It returns the number
// of matched rows so callers can tell a missing book from a success.
func (ss *sqlBookStorage) Update(ctx context.Context, id int64, in BookInput) (int64, error) {
	result, err := ss.db.ExecContext(ctx, queryUpdateBook, in.Title, in.Author, in.Year, id)
	if err != nil {
		return 0, storageError("update book", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("read updated rows", err)
	}
	return n, nil
}

// Delete removes a book record based on its ID and returns the number of removed rows.
func (ss *sqlBookStorage) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := ss.db.ExecContext(ctx, queryDeleteBook, id)
	if err != nil {
		return 0, storageError("delete book", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("read deleted rows", err)
	}
	return n, nil
}

// Tables lists the tables visible to the configured database user.
func (ss *sqlBookStorage) Tables(ctx context.Context) ([]string, error) {
	query := queryMySQLTables
	if ss.driver == DriverSQLite {
		query = querySQLiteTables
	}
	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError("list tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, storageError("scan table", err)
		}
		tables = append(tables, name)
	}
	if err = rows.Err(); err != nil {
		return nil, storageError("iterate tables", err)
	}
	return tables, nil
}
