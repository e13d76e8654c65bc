package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockres/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/lockfile"           //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/lockres/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lockfile.NodeID,
			fs.InspectorNodeID,
			scheduler.NodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			metrics.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	documents, err := graft.Dep[ports.DocumentLoader](ctx)
	if err != nil {
		return nil, err
	}

	inspector, err := graft.Dep[ports.PathInspector](ctx)
	if err != nil {
		return nil, err
	}

	schedulers, err := graft.Dep[*scheduler.Factory](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, documents, inspector, schedulers, m, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

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

	return NewComponents(a, log, m, tel), nil
}
