package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	ListAllFunc func(ctx context.Context) ([]Book, error)
	GetByIDFunc func(ctx context.Context, id int64) (Book, error)
	CreateFunc  func(ctx context.Context, in BookInput) (Book, error)
	UpdateFunc  func(ctx context.Context, id int64, in BookInput) (int64, error)
	DeleteFunc  func(ctx context.Context, id int64) (int64, error)
	TablesFunc  func(ctx context.Context) ([]string, error)
}

// ListAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) ListAll(ctx context.Context) ([]Book, error) {
	return m.ListAllFunc(ctx)
}

// GetByID mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetByID(ctx context.Context, id int64) (Book, error) {
	return m.GetByIDFunc(ctx, id)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, in BookInput) (Book, error) {
	return m.CreateFunc(ctx, in)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id int64, in BookInput) (int64, error) {
	return m.UpdateFunc(ctx, id, in)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) (int64, error) {
	return m.DeleteFunc(ctx, id)
}

func (m *MockBookStorage) Tables(ctx context.Context) ([]string, error) {
	return m.TablesFunc(ctx)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDGenerator.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// MockEventPublisher records every published event.
type MockEventPublisher struct {
	mu          sync.Mutex
	Events      []BookEvent
	PublishFunc func(ctx context.Context, event BookEvent) error
}

func (mp *MockEventPublisher) Publish(ctx context.Context, event BookEvent) error {
	mp.mu.Lock()
	mp.Events = append(mp.Events, event)
	mp.mu.Unlock()
	if mp.PublishFunc == nil {
		return nil
	}
	return mp.PublishFunc(ctx, event)
}

type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, event BookEvent) error
	PopFunc  func(ctx context.Context, qids ...string) (string, BookEvent, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, event BookEvent) error {
	return mq.PushFunc(ctx, qid, event)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, BookEvent, error) {
	return mq.PopFunc(ctx, qids...)
}

type MockEventStore struct {
	AppendFunc func(ctx context.Context, event BookEvent) (uint64, error)
	ListFunc   func(ctx context.Context, limit int) ([]BookEvent, error)
}

func (ms *MockEventStore) Append(ctx context.Context, event BookEvent) (uint64, error) {
	return ms.AppendFunc(ctx, event)
}

func (ms *MockEventStore) List(ctx context.Context, limit int) ([]BookEvent, error) {
	return ms.ListFunc(ctx, limit)
}

// newTestAPIHandler builds an api handler on top of the given storage
// with mocked clock and ids and no events trail.
func newTestAPIHandler(config *Config, storage BookStorage) *APIHandler {
	if config == nil {
		config = &Config{}
	}
	clock := NewMockClocker()
	bs := NewBookService(zap.NewNop(), config, clock, storage, nil)
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler("test"), bs, nil)
}
