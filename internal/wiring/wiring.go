// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lockres/internal/adapters/config"
	_ "go.trai.ch/lockres/internal/adapters/fs"
	_ "go.trai.ch/lockres/internal/adapters/lockfile"
	_ "go.trai.ch/lockres/internal/adapters/logger"
	_ "go.trai.ch/lockres/internal/adapters/metrics"
	_ "go.trai.ch/lockres/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/lockres/internal/app"
	_ "go.trai.ch/lockres/internal/engine/scheduler"
)
