package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// maxSignatureAge bounds replay of a captured request.
const maxSignatureAge = 5 * time.Minute

var (
	ErrSignatureMissing = errors.New("missing slack signature headers")
	ErrSignatureExpired = errors.New("slack request timestamp too old")
	ErrSignatureInvalid = errors.New("slack signature mismatch")
)

// VerifySignature checks X-Slack-Signature ("v0=" + hex HMAC-SHA256 of
// "v0:<timestamp>:<body>") and the freshness of X-Slack-Request-Timestamp.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrSignatureMissing
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrSignatureMissing
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > maxSignatureAge || age < -maxSignatureAge {
		return ErrSignatureExpired
	}
	if !hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign computes the v0 signature Slack sends for body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
