package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 6, 3, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))
	assert.Equal(t, "contracts/2025/06/04/run-1-Acme_Corp_SPRINT1_Agreement.docx",
		ObjectKey("run-1", at, "Acme_Corp_SPRINT1_Agreement.docx"))
}

func TestNewAppliesDefaultExpiry(t *testing.T) {
	s, err := New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "contracts"})
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, s.expiry)
	assert.Equal(t, "contracts", s.bucket)
}
