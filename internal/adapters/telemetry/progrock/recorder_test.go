package progrock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	adapter "go.trai.ch/lockres/internal/adapters/telemetry/progrock"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
)

// collector is a progrock.Writer that keeps the latest state of every vertex.
type collector struct {
	mu       sync.Mutex
	vertexes map[string]*progrock.Vertex
	logs     []string
	closed   bool
}

func newCollector() *collector {
	return &collector{vertexes: make(map[string]*progrock.Vertex)}
}

func (c *collector) WriteStatus(update *progrock.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range update.Vertexes {
		c.vertexes[v.Id] = v
	}
	for _, l := range update.Logs {
		c.logs = append(c.logs, string(l.Data))
	}
	return nil
}

func (c *collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *collector) vertex(name string) *progrock.Vertex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vertexes[adapter.VertexDigest(name).String()]
}

func TestNew(t *testing.T) {
	recorder := adapter.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_Integration(t *testing.T) {
	recorder := adapter.New()

	_, vertex := recorder.Record(context.Background(), "install requests")

	_, err := vertex.Stdout().Write([]byte("Collecting requests\n"))
	require.NoError(t, err)
	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Complete(nil)

	require.NoError(t, recorder.Close())
}

func TestRecorder_Record_Inputs(t *testing.T) {
	w := newCollector()
	recorder := adapter.NewRecorder(w)

	ctx, vertex := recorder.Record(context.Background(), "install requests",
		ports.WithInputs("install idna", "install urllib3"))

	got, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, vertex, got)

	vertex.Complete(nil)
	require.NoError(t, recorder.Close())

	v := w.vertex("install requests")
	require.NotNil(t, v)
	assert.Equal(t, "install requests", v.Name)
	assert.ElementsMatch(t, []string{
		adapter.VertexDigest("install idna").String(),
		adapter.VertexDigest("install urllib3").String(),
	}, v.Inputs)
	assert.NotNil(t, v.Completed)
	assert.Nil(t, v.Error)
	assert.True(t, w.closed)
}

func TestRecorder_Record_Failure(t *testing.T) {
	w := newCollector()
	recorder := adapter.NewRecorder(w)

	_, vertex := recorder.Record(context.Background(), "install broken")
	vertex.Log(domain.LogLevelError, "pip exited 1")
	vertex.Complete(errors.New("install failed"))
	require.NoError(t, recorder.Close())

	v := w.vertex("install broken")
	require.NotNil(t, v)
	require.NotNil(t, v.Error)
	assert.Contains(t, *v.Error, "install failed")
	assert.Contains(t, w.logs, "[ERROR] pip exited 1\n")
}

func TestRecorder_Record_Cached(t *testing.T) {
	w := newCollector()
	recorder := adapter.NewRecorder(w)

	_, vertex := recorder.Record(context.Background(), "install six")
	vertex.Cached()
	vertex.Complete(nil)
	require.NoError(t, recorder.Close())

	v := w.vertex("install six")
	require.NotNil(t, v)
	assert.True(t, v.Cached)
}
