// SPDX-License-Identifier: Apache-2.0

// Package testcontainers starts the backing services used by the regexop
// integration tests.
package testcontainers

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Cleanup terminates the container it was returned with.
type Cleanup func() error

const (
	postgresImage  = "postgres:17-alpine"
	kafkaImage     = "confluentinc/confluent-local:7.5.0"
	startupTimeout = 30 * time.Second
)

// StartPostgres runs a postgres container with a regexop database and returns
// its connection url.
func StartPostgres(ctx context.Context) (string, Cleanup, error) {
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("regexop"),
		// the server restarts once after running the init scripts
		testcontainers.WithWaitStrategy(readyLog("database system is ready to accept connections", 2)),
	)
	if err != nil {
		return "", nil, fmt.Errorf("starting postgres container: %w", err)
	}
	cleanup := terminate(ctr)

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", nil, withCleanup(fmt.Errorf("postgres connection string: %w", err), cleanup)
	}
	return url, cleanup, nil
}

// StartKafka runs a single broker kafka container and returns its broker
// addresses.
func StartKafka(ctx context.Context) ([]string, Cleanup, error) {
	ctr, err := kafka.Run(ctx, kafkaImage,
		kafka.WithClusterID("regexop-test-cluster"),
		testcontainers.WithWaitStrategy(readyLog("Kafka Server started", 1)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("starting kafka container: %w", err)
	}
	cleanup := terminate(ctr)

	brokers, err := ctr.Brokers(ctx)
	if err != nil {
		return nil, nil, withCleanup(fmt.Errorf("kafka brokers: %w", err), cleanup)
	}
	return brokers, cleanup, nil
}

func readyLog(line string, occurrences int) wait.Strategy {
	return wait.ForLog(line).
		WithOccurrence(occurrences).
		WithStartupTimeout(startupTimeout)
}

// terminate uses its own context, the test context is usually done by the
// time the cleanup runs.
func terminate(ctr testcontainers.Container) Cleanup {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return ctr.Terminate(ctx)
	}
}

func withCleanup(err error, cleanup Cleanup) error {
	if cleanupErr := cleanup(); cleanupErr != nil {
		return fmt.Errorf("%w (cleanup: %w)", err, cleanupErr)
	}
	return err
}
