//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/drafts"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("dupcheck-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readMessage reads the next message from the topic's single partition.
func readMessage(ctx context.Context, t *testing.T, broker, topic string) kafkago.Message {
	t.Helper()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read from %s", topic)
	return msg
}

// memoryDrafts is an in-process drafts.Store for tests that do not need
// Postgres.
type memoryDrafts struct {
	mu     sync.Mutex
	states map[string]drafts.State
}

func newMemoryDrafts(ids ...string) *memoryDrafts {
	m := &memoryDrafts{states: make(map[string]drafts.State)}
	for _, id := range ids {
		m.states[id] = drafts.State{DraftID: id}
	}
	return m
}

func (m *memoryDrafts) update(id string, fn func(*drafts.State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return drafts.ErrDraftNotFound
	}
	fn(&st)
	m.states[id] = st
	return nil
}

func (m *memoryDrafts) Load(_ context.Context, id string) (drafts.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return drafts.State{}, drafts.ErrDraftNotFound
	}
	return st, nil
}

func (m *memoryDrafts) SaveResult(_ context.Context, id string, res domain.MatchResult, clearOverride bool) error {
	return m.update(id, func(st *drafts.State) {
		score := res.Score
		st.Score = &score
		st.MatchedProjectID = res.MatchedProjectID()
		st.Level = res.Level
		if clearOverride {
			st.OverrideConfirmed = false
		}
	})
}

func (m *memoryDrafts) SetOverride(_ context.Context, id string, confirmed bool) error {
	return m.update(id, func(st *drafts.State) { st.OverrideConfirmed = confirmed })
}

func (m *memoryDrafts) MarkSubmitted(_ context.Context, id string, _ time.Time) error {
	return m.update(id, func(st *drafts.State) { st.Submitted = true })
}
