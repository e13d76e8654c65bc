package ports

import (
	"time"

	"go.trai.ch/lockres/internal/core/domain"
)

// Metrics records session outcomes.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveResolution records the outcome of resolving one node's satisfier.
	ObserveResolution(kind domain.SatisfierKind, err error)
	// ObserveIndexLookup records an index lookup and whether the cache served it.
	ObserveIndexLookup(cached bool, err error)
	// ObserveValidation records an artifact validation.
	ObserveValidation(passed bool, err error)
	// ObserveInstall records the final status of a node and the time it took.
	ObserveInstall(status domain.NodeStatus, elapsed time.Duration)
}
