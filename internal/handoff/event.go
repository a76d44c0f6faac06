package handoff

import (
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"contractflow/internal/pipeline"
)

const (
	EventType   = "com.contractflow.submission.accepted.v1"
	EventSource = "contractflow/intake"
)

// NewEvent wraps job in a CloudEvent whose id is the job id.
func NewEvent(job pipeline.Job) (cloudevents.Event, error) {
	ev := cloudevents.NewEvent()
	ev.SetID(job.ID)
	ev.SetType(EventType)
	ev.SetSource(EventSource)
	ev.SetSubject(job.Request.ClientCompany)
	ev.SetTime(job.ReceivedAt)
	if err := ev.SetData(cloudevents.ApplicationJSON, job); err != nil {
		return ev, fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return ev, nil
}

// JobFromEvent validates ev and decodes its job.
func JobFromEvent(ev cloudevents.Event) (pipeline.Job, error) {
	var job pipeline.Job
	if err := ev.Validate(); err != nil {
		return job, fmt.Errorf("invalid event: %w", err)
	}
	if ev.Type() != EventType {
		return job, fmt.Errorf("unexpected event type %q", ev.Type())
	}
	if err := ev.DataAs(&job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if job.ID == "" {
		job.ID = ev.ID()
	}
	if job.ID != ev.ID() {
		return job, fmt.Errorf("job id %q does not match event id %q", job.ID, ev.ID())
	}
	return job, nil
}
