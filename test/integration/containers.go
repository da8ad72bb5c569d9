// Package integration spins up the service's real collaborators (postgres,
// kafka, redis) in containers for end-to-end runs.
package integration

import (
	"context"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

type Env struct {
	PG        *postgres.PostgresContainer
	Kafka     *kafka.KafkaContainer
	Redis     *redis.RedisContainer
	PGURL     string
	Brokers   []string
	RedisAddr string
	Cancel    context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cancel()
		return nil, err
	}

	kafkaC, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("orders-test"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	brokers, err := kafkaC.Brokers(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	redisC, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		cancel()
		return nil, err
	}

	redisURL, err := redisC.ConnectionString(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Env{
		PG:        pgC,
		Kafka:     kafkaC,
		Redis:     redisC,
		PGURL:     pgURL,
		Brokers:   brokers,
		RedisAddr: strings.TrimPrefix(redisURL, "redis://"),
		Cancel:    cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Redis.Terminate(ctx)
	_ = e.Kafka.Terminate(ctx)
	_ = e.PG.Terminate(ctx)
}
