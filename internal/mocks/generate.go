// Package mocks provides mock implementations for testing the genjobs service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockQueue := mocks.NewMockJobQueue(ctrl)
//	mockQueue.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for JobQueue interface from internal/core package.
// This creates MockJobQueue with methods for all JobQueue interface methods:
// Push, ReadAll, Pop
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_queue_mock.go github.com/target/genjobs/internal/core JobQueue

// Generate mock for JobStore interface from internal/core package.
// This creates MockJobStore with methods for all JobStore interface methods:
// Append, ListAll, Get, Update
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_store_mock.go github.com/target/genjobs/internal/core JobStore

// Generate mock for JobEventPublisher interface from internal/core package.
// This creates MockJobEventPublisher with methods for all JobEventPublisher interface methods:
// Publish
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_event_publisher_mock.go github.com/target/genjobs/internal/core JobEventPublisher
