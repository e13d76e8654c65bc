package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockres/internal/core/ports"
)

// NodeID is the unique identifier for the lock document loader Graft node.
const NodeID graft.ID = "adapter.lockfile"

func init() {
	graft.Register(graft.Node[ports.DocumentLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DocumentLoader, error) {
			return NewLoader(), nil
		},
	})
}
