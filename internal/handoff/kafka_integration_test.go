//go:build integration

package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractflow/internal/pipeline"
	"contractflow/internal/platform/config"
	"contractflow/internal/platform/kafka"
	"contractflow/pkg/testutil/containers"
)

func TestKafkaDispatchAndConsume(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t)
	cfg := config.KafkaConfig{Brokers: []string{broker.Broker}, Topic: "contracts-it", Group: "contracts-it-worker"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	producer, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg.Topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg.Topic, 1, 1), "ensuring twice is a no-op")

	d := NewKafka(producer, cfg.Topic)
	require.NoError(t, d.Dispatch(ctx, testJob()))

	consumer, err := kafka.NewConsumer(cfg)
	require.NoError(t, err)
	defer consumer.Close()

	got := make(chan pipeline.Job, 1)
	consumeCtx, stop := context.WithCancel(ctx)
	go func() {
		_ = Consume(consumeCtx, consumer, func(_ context.Context, job pipeline.Job) error {
			got <- job
			return nil
		}, discardLogger())
	}()

	select {
	case job := <-got:
		assert.Equal(t, testJob().ID, job.ID)
		assert.Equal(t, "Acme Corp", job.Request.ClientCompany)
	case <-ctx.Done():
		t.Fatal("job was not consumed")
	}
	stop()
}
