package azure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutRecomposesURLAndSetsHeaders(t *testing.T) {
	var gotPath, gotQuery, gotVersion, gotBlobType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotVersion = r.Header.Get("x-ms-version")
		gotBlobType = r.Header.Get("x-ms-blob-type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink, err := New(srv.URL+"/container?sv=2020-01-01&sig=abc", "triage", "host1")
	require.NoError(t, err)

	err = sink.Put(context.Background(), "mft.json", []byte(`[]`), "application/json")
	require.NoError(t, err)

	require.Equal(t, "/container/triage%2Fhost1%2Fmft.json", gotPath)
	require.Equal(t, "sv=2020-01-01&sig=abc", gotQuery)
	require.Equal(t, "2019-12-12", gotVersion)
	require.Equal(t, "BlockBlob", gotBlobType)
}

func TestPutRetriesOnNon2xxUntilSuccess(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink, err := New(srv.URL+"/c?sv=1", "triage", "host1")
	require.NoError(t, err)

	err = sink.Put(context.Background(), "mft.json", []byte(`[]`), "application/json")
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestNewRejectsURLWithoutSASQuery(t *testing.T) {
	_, err := New("https://example.com/container", "triage", "host1")
	require.Error(t, err)
}
