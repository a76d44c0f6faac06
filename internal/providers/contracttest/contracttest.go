// Package contracttest checks that provider clients honor the shared error taxonomy.
package contracttest

import (
	"context"
	"errors"
	"testing"

	"contractflow/internal/providers"
)

// ErrorContractTest validates that one failing call follows the taxonomy
type ErrorContractTest struct {
	Name          string
	Call          func(ctx context.Context) error
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// ErrorContractSuite is a collection of error contract tests for a provider
type ErrorContractSuite struct {
	ProviderID string
	Tests      []ErrorContractTest
}

// Run executes all contract tests in the suite
func (s *ErrorContractSuite) Run(t *testing.T) {
	t.Helper()
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			err := test.Call(context.Background())
			if err == nil {
				t.Fatal("expected error but got none")
			}

			var pe *providers.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *providers.ProviderError, got %T: %v", err, err)
			}
			if pe.ProviderID != s.ProviderID {
				t.Errorf("expected provider ID %s, got %s", s.ProviderID, pe.ProviderID)
			}
			if pe.Category != test.ExpectedError {
				t.Errorf("expected error category %s, got %s (%v)", test.ExpectedError, pe.Category, err)
			}
			if providers.IsRetryable(err) != test.ExpectedRetry {
				t.Errorf("expected retryable=%v, got %v", test.ExpectedRetry, pe.Retryable)
			}
		})
	}
}
