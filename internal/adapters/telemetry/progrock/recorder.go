// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/lockres/internal/core/ports"
)

// Recorder implements the ports.Telemetry interface using the progrock library.
// Each install becomes one vertex; a vertex's inputs are the vertices of the
// dependencies it waited on.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() ports.Telemetry {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// VertexDigest returns the vertex id recorded for name.
func VertexDigest(name string) digest.Digest {
	return digest.FromString(name)
}

// Record starts recording a new vertex.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	var cfg ports.VertexConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var vopts []progrock.VertexOpt
	if len(cfg.Inputs) > 0 {
		inputs := make([]digest.Digest, 0, len(cfg.Inputs))
		for _, in := range cfg.Inputs {
			inputs = append(inputs, VertexDigest(in))
		}
		vopts = append(vopts, progrock.WithInputs(inputs...))
	}

	v := r.rec.Vertex(VertexDigest(name), name, vopts...)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	return r.w.Close()
}
