package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context) ([]Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, in BookInput) (Book, error)
	Update(ctx context.Context, id int64, in BookInput) (Book, error)
	Delete(ctx context.Context, id int64) error
	Tables(ctx context.Context) ([]string, error)
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	storage BookStorage
	events  EventPublisher
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, storage BookStorage, events EventPublisher) BookServiceProvider {
	if events == nil {
		events = nopPublisher{}
	}
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		storage: storage,
		events:  events,
	}
}

func (bs *BookService) List(ctx context.Context) ([]Book, error) {
	return bs.storage.ListAll(ctx)
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (Book, error) {
	return bs.storage.GetByID(ctx, id)
}

func (bs *BookService) Create(ctx context.Context, in BookInput) (Book, error) {
	book, err := bs.storage.Create(ctx, in)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, EventBookCreated, book)
	return book, nil
}

// Update overwrites the book. Zero matched rows means the book does not exist.
func (bs *BookService) Update(ctx context.Context, id int64, in BookInput) (Book, error) {
	n, err := bs.storage.Update(ctx, id, in)
	if err != nil {
		return Book{}, err
	}
	if n == 0 {
		return Book{}, ErrBookNotFound
	}
	book := in.WithID(id)
	bs.publish(ctx, EventBookUpdated, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	n, err := bs.storage.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	bs.publish(ctx, EventBookDeleted, Book{ID: id})
	return nil
}

func (bs *BookService) Tables(ctx context.Context) ([]string, error) {
	return bs.storage.Tables(ctx)
}

func (bs *BookService) publish(ctx context.Context, kind string, book Book) {
	event := BookEvent{Kind: kind, Book: book, At: bs.clock.Now().UTC()}
	// the write is already committed so the event must go out even if the client left.
	if err := bs.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		bs.logger.Error("service: failed to publish book event",
			zap.String("event.kind", kind),
			zap.Int64("book.id", book.ID),
			zap.String("request.id", GetValueFromContext(ctx, RequestIDContextKey)),
			zap.Error(err),
		)
	}
}
