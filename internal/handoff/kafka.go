package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"contractflow/internal/pipeline"
	"contractflow/internal/platform/config"
	"contractflow/pkg/platform/sentinel"
)

const contentTypeHeader = "content-type"

// Kafka produces each job as a structured CloudEvent keyed by job id.
type Kafka struct {
	client *kgo.Client
	topic  string
}

func NewKafka(client *kgo.Client, topic string) *Kafka {
	return &Kafka{client: client, topic: topic}
}

func (d *Kafka) Mode() string { return config.HandoffKafka }

// Dispatch waits for the broker acknowledgement.
func (d *Kafka) Dispatch(ctx context.Context, job pipeline.Job) error {
	rec, err := EncodeRecord(d.topic, job)
	if err != nil {
		return err
	}
	if err := d.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce job %s: %w", job.ID, err)
	}
	return nil
}

// EncodeRecord wraps job in a structured CloudEvent record keyed by job id.
func EncodeRecord(topic string, job pipeline.Job) (*kgo.Record, error) {
	ev, err := NewEvent(job)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", job.ID, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(job.ID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: contentTypeHeader, Value: []byte(cloudevents.ApplicationCloudEventsJSON)},
		},
	}, nil
}

// DecodeRecord reads the job carried by a record produced by Kafka.Dispatch.
func DecodeRecord(rec *kgo.Record) (pipeline.Job, error) {
	var ev cloudevents.Event
	if err := json.Unmarshal(rec.Value, &ev); err != nil {
		return pipeline.Job{}, fmt.Errorf("decode event: %w", err)
	}
	return JobFromEvent(ev)
}

const (
	retryDelay    = 5 * time.Second
	commitTimeout = 10 * time.Second
)

// Consume polls until ctx is cancelled or the client is closed. Each record is
// handled and then committed, so a crash mid-job redelivers it. Records that
// cannot be decoded are logged and committed. A record whose handling fails is
// not committed: its partition is rewound to it and retried after a delay.
func Consume(ctx context.Context, client *kgo.Client, handle func(context.Context, pipeline.Job) error, logger *slog.Logger) error {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return nil
			}
			logger.ErrorContext(ctx, "kafka fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
		}

		done, rewind := handleRecords(ctx, fetches.Records(), handle, logger)
		if len(done) > 0 {
			// Finished jobs are committed even while shutting down.
			commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
			if err := client.CommitRecords(commitCtx, done...); err != nil {
				logger.ErrorContext(ctx, "commit failed", "records", len(done), "error", err)
			}
			cancel()
		}
		if len(rewind) == 0 {
			continue
		}
		client.SetOffsets(rewind)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

// handleRecords returns the records to commit and, per partition, the offset of
// the first record that failed. Later records of a failed partition are left
// for the retry so offsets are never committed past an unfinished job.
func handleRecords(ctx context.Context, records []*kgo.Record, handle func(context.Context, pipeline.Job) error, logger *slog.Logger) ([]*kgo.Record, map[string]map[int32]kgo.EpochOffset) {
	var done []*kgo.Record
	rewind := make(map[string]map[int32]kgo.EpochOffset)
	for _, rec := range records {
		if _, held := rewind[rec.Topic][rec.Partition]; held {
			continue
		}
		job, err := DecodeRecord(rec)
		if err != nil {
			logger.ErrorContext(ctx, "dropping undecodable record",
				"partition", rec.Partition, "offset", rec.Offset, "error", err)
			done = append(done, rec)
			continue
		}
		if err := handle(ctx, job); err != nil && !errors.Is(err, sentinel.ErrDuplicate) {
			logger.ErrorContext(ctx, "job handling failed, will retry",
				"run_id", job.ID, "partition", rec.Partition, "offset", rec.Offset, "error", err)
			if rewind[rec.Topic] == nil {
				rewind[rec.Topic] = make(map[int32]kgo.EpochOffset)
			}
			rewind[rec.Topic][rec.Partition] = kgo.EpochOffset{Epoch: rec.LeaderEpoch, Offset: rec.Offset}
			continue
		}
		done = append(done, rec)
	}
	return done, rewind
}
