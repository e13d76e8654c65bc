package domain

import "time"

// InstallRecord remembers the inputs a node was last installed with.
type InstallRecord struct {
	Key       Key       `json:"key,omitzero"`
	InputHash string    `json:"input_hash,omitzero"`
	Target    string    `json:"target,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}
