package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockres/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockres/internal/adapters/metrics"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockres/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/engine/validator"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

// Factory builds schedulers for install sessions. Downloader and installer are
// configured per session; the rest is shared.
type Factory struct {
	validator *validator.Validator
	telemetry ports.Telemetry
	metrics   ports.Metrics
	logger    ports.Logger
}

// NewFactory creates a Factory.
func NewFactory(telemetry ports.Telemetry, metrics ports.Metrics, logger ports.Logger) *Factory {
	return &Factory{
		validator: validator.New(metrics),
		telemetry: telemetry,
		metrics:   metrics,
		logger:    logger,
	}
}

// New returns a Scheduler using the given collaborators. store may be nil.
func (f *Factory) New(downloader ports.Downloader, installer ports.Installer, store ports.InstallStore) *Scheduler {
	return NewScheduler(downloader, installer, store, f.validator, f.telemetry, f.metrics, f.logger)
}

// Validator returns the shared artifact validator.
func (f *Factory) Validator() *validator.Validator {
	return f.validator
}

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			metrics.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Factory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return NewFactory(tel, m, log), nil
		},
	})
}
