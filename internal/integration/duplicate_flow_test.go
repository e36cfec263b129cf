//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-dupcheck/internal/adapter/feed"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/httpadapter"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/kafka"
	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/drafts"
	"github.com/couchcryptid/listing-dupcheck/internal/dupcheck"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
	"github.com/couchcryptid/listing-dupcheck/internal/scoring"
)

const testDuplicateTopic = "test-listing-duplicates"

func ptr[T any](v T) *T { return &v }

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/projects":
			_ = json.NewEncoder(w).Encode(feed.Page{Items: []feed.Project{
				{ID: "p-1", Name: "Marina Heights", Developer: "Emaar", Community: "Dubai Marina", City: "Dubai",
					Latitude: ptr(25.0805), Longitude: ptr(55.1403), URL: "https://catalog.example.test/p-1"},
				{ID: "p-2", Name: "Creek Vista", Developer: "Sobha", Community: "Dubai Creek Harbour", City: "Dubai"},
			}})
		case r.URL.Path == "/v1/projects/p-1":
			_ = json.NewEncoder(w).Encode(feed.Project{ID: "p-1", Name: "Marina Heights", Developer: "Emaar"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestDuplicateFlow drives a draft through the HTTP API: a strong match is
// recorded, published to Kafka, blocks submission, and an override unblocks it.
func TestDuplicateFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testDuplicateTopic)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	feedSrv := newFeedServer(t)
	client := feed.NewClient(feedSrv.URL, "", 100, 5, 5*time.Second, logger)
	cache := catalog.NewCache(client, catalog.Options{Clock: clock, Logger: logger, Metrics: metrics})
	details := catalog.NewDetailCache(client, cache, catalog.DetailOptions{Clock: clock, Logger: logger, Metrics: metrics})

	scorer, err := scoring.NewScorer(scoring.DefaultConfig())
	require.NoError(t, err)
	svc := dupcheck.New(cache, scorer, logger, metrics)

	publisher := kafka.NewPublisher([]string{broker}, testDuplicateTopic, logger)
	t.Cleanup(func() { _ = publisher.Close() })

	store := newMemoryDrafts("d-1")
	recorder := drafts.NewRecorder(store, publisher, clock, logger, metrics)

	api := httptest.NewServer(httpadapter.NewServer(":0", cache, httpadapter.API{
		Checker:  svc,
		Drafts:   recorder,
		Projects: details,
	}, logger))
	t.Cleanup(api.Close)

	post := func(path, body string) *http.Response {
		resp, err := http.Post(api.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	// Readiness follows the first catalog load.
	resp, err := http.Get(api.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = post("/v1/drafts/d-1/duplicate-check",
		`{"title":"Marina Heights","developerName":"Emaar","community":"Dubai Marina","latitude":25.08059,"longitude":55.1403}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res domain.MatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, domain.LevelStrong, res.Level)
	assert.GreaterOrEqual(t, res.Score, 90)
	require.NotNil(t, res.Match)
	assert.Equal(t, "p-1", res.Match.ProjectID)

	resp, err = http.Get(api.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The strong verdict was published.
	msg := readMessage(ctx, t, broker, testDuplicateTopic)
	assert.Equal(t, "d-1", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "strong", headers["level"])
	assert.NotEmpty(t, headers["detected_at"])

	var evt domain.DuplicateDetected
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, "d-1", evt.DraftID)
	assert.Equal(t, "p-1", evt.ProjectID)
	assert.Equal(t, res.Score, evt.Score)

	// Submission is gated until the agent confirms the override.
	resp = post("/v1/drafts/d-1/submit", `{"duplicateOverrideConfirmed":false}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post("/v1/drafts/d-1/submit", `{"duplicateOverrideConfirmed":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	st, err := store.Load(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, st.Submitted)
	assert.True(t, st.OverrideConfirmed)

	// Project detail lookups go through the detail cache.
	resp, err = http.Get(api.URL + "/v1/projects/p-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
