package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	DB           pinger
	Redis        pinger
	PubSub       pinger
	Notification consumer
}

// Service supervises the notification consumer once its dependencies respond.
type Service struct {
	logg         *logger.Logger
	deps         []namedPinger
	notification consumer
}

type namedPinger struct {
	name string
	ping pinger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Notification == nil {
		return nil, errors.New("notification consumer is required")
	}
	return &Service{
		logg: params.Logger,
		deps: []namedPinger{
			{name: "database", ping: params.DB},
			{name: "redis", ping: params.Redis},
			{name: "pubsub", ping: params.PubSub},
		},
		notification: params.Notification,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.ping.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", dep.name), err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is cancelled or the consumer exits.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	err := s.notification.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	default:
		s.logg.Error(ctx, "notification consumer stopped unexpectedly", err)
		return err
	}
}
