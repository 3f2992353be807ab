package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubConsumer struct {
	err    error
	called bool
}

func (s *stubConsumer) Run(ctx context.Context) error {
	s.called = true
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestRunStopsWhenDependencyUnavailable(t *testing.T) {
	consumer := &stubConsumer{}
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           stubPinger{},
		Redis:        stubPinger{err: errors.New("connection refused")},
		PubSub:       stubPinger{},
		Notification: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}
	if consumer.called {
		t.Fatal("consumer must not start before dependencies are ready")
	}
}

func TestRunPropagatesConsumerFailure(t *testing.T) {
	consumer := &stubConsumer{err: errors.New("subscription deleted")}
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           stubPinger{},
		Redis:        stubPinger{},
		PubSub:       stubPinger{},
		Notification: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(context.Background()); err == nil || err.Error() != "subscription deleted" {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestRunTreatsCancellationAsShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           stubPinger{},
		Redis:        stubPinger{},
		PubSub:       stubPinger{},
		Notification: &stubConsumer{err: context.Canceled},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: testLogger(),
		DB:     stubPinger{},
		Redis:  stubPinger{},
		PubSub: stubPinger{},
	})
	if err == nil {
		t.Fatal("expected error without consumer")
	}
}
