package chartdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	var got Request
	var gotAuth, gotRequestID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DataPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"data":[{"name":"a","num":1}],"colnames":["name","num"],"rowcount":1}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, WithToken("tok"))
	formData := models.FormData{"datasource": "birth_names__table"}

	req := NewRequest(formData, models.KindSamples, map[string]any{"page": 2})
	req.ID = "fixed-id"
	res, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "fixed-id", gotRequestID)
	assert.Equal(t, "fixed-id", res.RequestID)
	assert.Equal(t, "samples", got.ResultType)
	assert.Equal(t, "json", got.ResultFormat)
	assert.Equal(t, "birth_names__table", got.FormData.Datasource())
	assert.EqualValues(t, 2, got.OwnState["page"])

	require.Len(t, res.Queries, 1)
	assert.Equal(t, []string{"name", "num"}, res.Queries[0].ColNames)
	assert.Equal(t, "a", res.Queries[0].Data[0]["name"])
}

func TestClient_FetchGeneratesRequestID(t *testing.T) {
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), NewRequest(models.FormData{}, models.KindResults, nil))
	require.NoError(t, err)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, res.RequestID)
}

func TestClient_FetchErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Column not found: foo"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), NewRequest(models.FormData{}, models.KindResults, nil))
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
	assert.Equal(t, "Column not found: foo", Normalize(err))
}

func TestClient_FetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Fetch(context.Background(), NewRequest(models.FormData{}, models.KindResults, nil))
	require.Error(t, err)
	assert.NotEqual(t, FallbackErrorMessage, Normalize(err))
}
