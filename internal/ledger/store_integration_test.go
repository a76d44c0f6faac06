//go:build integration

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contractflow/internal/contract"
	"contractflow/internal/pipeline"
	"contractflow/pkg/testutil/containers"
)

type LedgerSuite struct {
	suite.Suite
	store *Store
	pg    *containers.PostgresContainer
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *LedgerSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "contract_runs"))
}

func (s *LedgerSuite) result(id string, at time.Time) (pipeline.Job, *pipeline.Result) {
	job := pipeline.Job{ID: id, ReceivedAt: at}
	return job, &pipeline.Result{
		RunID:      id,
		Success:    true,
		Request:    pipeline.Summary{Company: "Acme Corp", Variant: contract.VariantSprint1, AmountCents: 500000},
		ESign:      &pipeline.ESignResult{DocumentID: "doc-" + id},
		Task:       &pipeline.TaskResult{Error: "clickup down"},
		Source:     pipeline.SourceSlack,
		StartedAt:  at,
		FinishedAt: at.Add(time.Second),
	}
}

func (s *LedgerSuite) TestRecordAndRecent() {
	ctx := context.Background()
	base := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		job, res := s.result(id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(s.T(), s.store.Record(ctx, job, res))
	}

	entries, err := s.store.Recent(ctx, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 2)
	assert.Equal(s.T(), "run-c", entries[0].RunID)
	assert.Equal(s.T(), "run-b", entries[1].RunID)
	assert.Equal(s.T(), "doc-run-c", entries[0].DocumentID)
	assert.Equal(s.T(), []string{"task: clickup down"}, entries[0].StageErrors)
}

func (s *LedgerSuite) TestRecordIsIdempotentPerRun() {
	ctx := context.Background()
	job, res := s.result("run-a", time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC))
	require.NoError(s.T(), s.store.Record(ctx, job, res))
	res.Success = false
	require.NoError(s.T(), s.store.Record(ctx, job, res))

	entries, err := s.store.Recent(ctx, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.True(s.T(), entries[0].Success)
}
