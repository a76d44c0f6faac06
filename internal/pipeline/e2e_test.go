package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractflow/internal/contract"
	"contractflow/internal/document"
	"contractflow/internal/pipeline"
	"contractflow/internal/providers/chat"
	"contractflow/internal/providers/esign"
	"contractflow/internal/providers/payment"
	"contractflow/internal/providers/providertest"
	"contractflow/internal/providers/tracker"
	"contractflow/pkg/requestcontext"
)

type fakeProviders struct {
	signnow *providertest.Server
	stripe  *providertest.Server
	clickup *providertest.Server
	slack   *providertest.Server
}

func newRealService(t *testing.T) (*pipeline.Service, fakeProviders) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fakeProviders{
		signnow: providertest.NewSignNow(t),
		stripe:  providertest.NewStripe(t),
		clickup: providertest.NewClickUp(t),
		slack:   providertest.NewSlack(t),
	}
	renderer, err := document.New(document.Provider{Company: "Northwind Studio", SignerName: "Jane Roe", SignerTitle: "Partner"},
		document.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	slack := chat.New(chat.Config{BaseURL: f.slack.URL, BotToken: "xoxb", ChannelID: "C-reports"}, logger)
	svc := pipeline.New(
		renderer,
		esign.New(esign.Config{BaseURL: f.signnow.URL, AppURL: "https://app.signnow.test", BasicToken: "b", Username: "u", Password: "p"}, logger),
		payment.New(payment.Config{BaseURL: f.stripe.URL, SecretKey: "sk_test"}, logger),
		tracker.New(tracker.Config{BaseURL: f.clickup.URL, Token: "pk", ListID: "901"}, logger),
		pipeline.WithLogger(logger),
		pipeline.WithReporter(pipeline.NewSlackReporter(slack, slack.ChannelID(), false, logger)),
	)
	return svc, f
}

func acmeSubmission() contract.Submission {
	return contract.Submission{
		ContractType:  "sprint1",
		ClientCompany: "Acme Corp",
		ClientFirst:   "John",
		ClientLast:    "Doe",
		ClientTitle:   "CEO",
		ClientEmail:   "john@acme.com",
		Amount:        "5000",
		Deliverable:   "SEO audit",
	}
}

func TestAcmeCorpEndToEnd(t *testing.T) {
	svc, f := newRealService(t)
	ctx := requestcontext.WithTime(context.Background(), fixedNow)

	res, err := svc.Submit(ctx, acmeSubmission(), pipeline.Origin{Source: pipeline.SourceWebhook})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, []string{
		providertest.SignNowToken,
		providertest.SignNowUpload,
		providertest.SignNowDocument,
		providertest.SignNowFields,
		providertest.SignNowDocument,
		providertest.SignNowEmbeddedInvite,
		providertest.SignNowEmbeddedLink,
	}, f.signnow.Routes())
	assert.False(t, f.signnow.Called(providertest.SignNowInvite))

	assert.Equal(t, providertest.DocumentID, res.ESign.DocumentID)
	assert.Equal(t, providertest.EmbeddedLink, res.ESign.SigningLink)

	item, ok := f.stripe.Last(providertest.StripeInvoiceItem)
	require.True(t, ok)
	assert.Equal(t, "500000", item.Form.Get("amount"))
	assert.Equal(t, "one_time", res.Payment.Mode)
	assert.False(t, f.stripe.Called(providertest.StripeSubscription))

	task, ok := f.clickup.Last(providertest.ClickUpCreateTask)
	require.True(t, ok)
	var body tracker.Task
	require.NoError(t, task.JSON(&body))
	assert.Equal(t, "Acme Corp - SPRINT1 - $5,000", body.Name)

	post, ok := f.slack.Last(providertest.SlackPostMessage)
	require.True(t, ok)
	var msg chat.Message
	require.NoError(t, json.Unmarshal(post.Body, &msg))
	assert.Equal(t, "C-reports", msg.Channel)
	assert.Contains(t, messageText(msg), "Acme Corp")
}

func TestUploadFailureMakesNoBillingOrTaskCalls(t *testing.T) {
	svc, f := newRealService(t)
	f.signnow.Fail(providertest.SignNowUpload, http.StatusInternalServerError)

	res, err := svc.Submit(context.Background(), acmeSubmission(), pipeline.Origin{Source: pipeline.SourceWebhook})

	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, pipeline.StageUpload, res.Stage)
	assert.Empty(t, f.stripe.Calls())
	assert.Empty(t, f.clickup.Calls())
	assert.True(t, f.slack.Called(providertest.SlackPostMessage), "fatal failures are still reported")
}

func TestInvoiceFailureKeepsDocumentAndTask(t *testing.T) {
	svc, f := newRealService(t)
	f.stripe.Fail(providertest.StripeCreateInvoice, http.StatusBadRequest)

	res, err := svc.Submit(context.Background(), acmeSubmission(), pipeline.Origin{Source: pipeline.SourceWebhook})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, providertest.DocumentID, res.ESign.DocumentID)
	assert.NotEmpty(t, res.ESign.SigningLink)
	assert.NotEmpty(t, res.Payment.Error)
	assert.True(t, f.clickup.Called(providertest.ClickUpCreateTask))
	assert.Equal(t, providertest.TaskID, res.Task.TaskID)
}

func TestPhase2AliasBillsSubscription(t *testing.T) {
	svc, f := newRealService(t)
	sub := acmeSubmission()
	sub.ContractType = "Phase 2"

	res, err := svc.Submit(context.Background(), sub, pipeline.Origin{Source: pipeline.SourceWebhook})
	require.NoError(t, err)
	assert.Equal(t, contract.VariantPhase2, res.Request.Variant)
	assert.Equal(t, providertest.SubscriptionID, res.Payment.SubscriptionID)
	assert.True(t, f.stripe.Called(providertest.StripeSubscription))
}
