package aws

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidBase64(t *testing.T) {
	_, err := New("not-valid-base64!!")
	require.Error(t, err)
}

func TestNewRejectsMissingBucket(t *testing.T) {
	creds := base64.StdEncoding.EncodeToString([]byte(`{"secret":"s","key":"k","region":"us-east-1"}`))
	_, err := New(creds)
	require.Error(t, err)
}

func TestNewAcceptsWellFormedCredentials(t *testing.T) {
	creds := base64.StdEncoding.EncodeToString([]byte(`{"bucket":"triage-out","secret":"s","key":"k","region":"us-west-2"}`))
	sink, err := New(creds)
	require.NoError(t, err)
	require.Equal(t, "triage-out", sink.bucket)
}
