package main

import (
	"context"
	"errors"
	"fmt"
)

// ErrBookNotFound is returned when no book matches the requested id.
var ErrBookNotFound = errors.New("book not found")

// Book represents a book entity. The json names are the ones
// historically exposed by the libros api and must not change.
type Book struct {
	ID     int64  `json:"id" example:"1"`
	Title  string `json:"titulo" example:"Dune"`
	Author string `json:"autor" example:"Frank Herbert"`
	Year   int    `json:"anio" example:"1965"`
}

// BookInput holds the validated fields of a book creation or
// update request. It never carries an id.
type BookInput struct {
	Title  string
	Author string
	Year   int
}

// WithID builds the full book representation from validated fields.
func (in BookInput) WithID(id int64) Book {
	return Book{ID: id, Title: in.Title, Author: in.Author, Year: in.Year}
}

// BookStorage defines possible operations on book entity. Each
// method issues a single statement against the relational store.
type BookStorage interface {
	ListAll(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, in BookInput) (Book, error)
	Update(ctx context.Context, id int64, in BookInput) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Tables(ctx context.Context) ([]string, error)
}

// StorageError wraps any failure reported by the underlying database
// driver. Its message is meant for logs, never for api clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
