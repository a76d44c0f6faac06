package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"contractflow/internal/pipeline"
	"contractflow/internal/pipeline/mocks"
	"contractflow/internal/providers/chat"
)

func successResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:   "run-1",
		Success: true,
		Request: pipeline.Summary{Company: "Acme Corp", ClientName: "John Doe", ClientEmail: "john@acme.com", Variant: "sprint1", Amount: "$5,000"},
		ESign:   &pipeline.ESignResult{DocumentID: "doc-1", SigningLink: "https://sign.test/doc-1", LinkType: "embedded"},
		Payment: &pipeline.PaymentResult{InvoiceID: "in_1", InvoiceURL: "https://pay.test/in_1", Mode: "one_time"},
		Task:    &pipeline.TaskResult{TaskID: "task_1", TaskURL: "https://tasks.test/task_1"},
		Source:  pipeline.SourceSlack,
	}
}

// messageText flattens every text in a message for substring assertions.
func messageText(msg chat.Message) string {
	var b strings.Builder
	b.WriteString(msg.Text)
	for _, blk := range msg.Blocks {
		if blk.Text != nil {
			b.WriteString("\n" + blk.Text.Text)
		}
		for _, f := range blk.Fields {
			b.WriteString("\n" + f.Text)
		}
		for _, e := range blk.Elements {
			b.WriteString("\n" + e.Text)
		}
	}
	return b.String()
}

func TestSummarizeSuccess(t *testing.T) {
	text := messageText(pipeline.Summarize(successResult()))

	assert.Contains(t, text, "Contract created: Acme Corp")
	assert.Contains(t, text, "$5,000")
	assert.Contains(t, text, "<https://sign.test/doc-1|signing link>")
	assert.Contains(t, text, "<https://pay.test/in_1|in_1> (one_time)")
	assert.Contains(t, text, "<https://tasks.test/task_1|task_1>")
	assert.Contains(t, text, "run-1")
}

func TestSummarizePartialAndFatal(t *testing.T) {
	partial := successResult()
	partial.Payment = &pipeline.PaymentResult{Error: "card declined"}
	partial.ESign.LinkType = "viewer"
	text := messageText(pipeline.Summarize(partial))
	assert.Contains(t, text, ":warning: card declined")
	assert.Contains(t, text, "embedded link unavailable")

	failed := &pipeline.Result{
		RunID:   "run-2",
		Stage:   pipeline.StageUpload,
		Error:   "signnow upload [provider_outage]: status 503",
		Request: pipeline.Summary{Company: "Acme Corp", Variant: "phase2", Amount: "$1,000"},
	}
	text = messageText(pipeline.Summarize(failed))
	assert.Contains(t, text, "Contract failed: Acme Corp")
	assert.Contains(t, text, "Failed at `upload`")
	assert.Contains(t, text, "No invoice or task was created.")
}

func TestSlackReporterChannelSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mocks.NewMockChat(ctrl)
	reporter := pipeline.NewSlackReporter(c, "C-default", false, nil)

	c.EXPECT().PostMessage(gomock.Any(), gomock.Cond(func(m chat.Message) bool { return m.Channel == "C-default" })).Return("1", nil)
	require.NoError(t, reporter.Report(context.Background(), pipeline.Job{}, successResult()))

	c.EXPECT().PostMessage(gomock.Any(), gomock.Cond(func(m chat.Message) bool { return m.Channel == "C-origin" })).Return("2", nil)
	job := pipeline.Job{Origin: pipeline.Origin{ChannelID: "C-origin", UserID: "U1"}}
	require.NoError(t, reporter.Report(context.Background(), job, successResult()))
}

func TestSlackReporterDMsSubmitter(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mocks.NewMockChat(ctrl)
	reporter := pipeline.NewSlackReporter(c, "C-default", true, nil)

	gomock.InOrder(
		c.EXPECT().PostMessage(gomock.Any(), gomock.Cond(func(m chat.Message) bool { return m.Channel == "C-default" })).Return("1", nil),
		c.EXPECT().OpenDM(gomock.Any(), "U1").Return("D1", nil),
		c.EXPECT().PostMessage(gomock.Any(), gomock.Cond(func(m chat.Message) bool { return m.Channel == "D1" })).Return("2", nil),
	)
	job := pipeline.Job{Origin: pipeline.Origin{UserID: "U1"}}
	require.NoError(t, reporter.Report(context.Background(), job, successResult()))
}

func TestSlackReporterJoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mocks.NewMockChat(ctrl)
	reporter := pipeline.NewSlackReporter(c, "C-default", true, nil)

	c.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return("", errBoom)
	c.EXPECT().OpenDM(gomock.Any(), "U1").Return("", errBoom)

	err := reporter.Report(context.Background(), pipeline.Job{Origin: pipeline.Origin{UserID: "U1"}}, successResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post to C-default")
	assert.Contains(t, err.Error(), "dm U1")
}
