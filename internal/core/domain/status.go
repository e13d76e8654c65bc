package domain

import "strings"

// NodeStatus is the lifecycle state of a node during an install session.
type NodeStatus string

const (
	// NodeStatusPending indicates the node is waiting for its dependencies.
	NodeStatusPending NodeStatus = "pending"
	// NodeStatusRunning indicates the node is being downloaded, validated or installed.
	NodeStatusRunning NodeStatus = "running"
	// NodeStatusInstalled indicates the node was installed.
	NodeStatusInstalled NodeStatus = "installed"
	// NodeStatusFailed indicates the node failed.
	NodeStatusFailed NodeStatus = "failed"
	// NodeStatusBlocked indicates a dependency of the node failed.
	NodeStatusBlocked NodeStatus = "blocked"
	// NodeStatusSkipped indicates the node needed no install, e.g. a meta-dependency.
	NodeStatusSkipped NodeStatus = "skipped"
	// NodeStatusCached indicates the node was installed by an earlier session with the same inputs.
	NodeStatusCached NodeStatus = "cached"
)

// IsTerminal reports whether the status is final.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusInstalled, NodeStatusFailed, NodeStatusBlocked, NodeStatusSkipped, NodeStatusCached:
		return true
	default:
		return false
	}
}

// NormalizeNodeStatus converts a string to a NodeStatus, defaulting to pending if unknown.
func NormalizeNodeStatus(s string) NodeStatus {
	switch st := NodeStatus(strings.ToLower(s)); st {
	case NodeStatusPending, NodeStatusRunning, NodeStatusInstalled,
		NodeStatusFailed, NodeStatusBlocked, NodeStatusSkipped, NodeStatusCached:
		return st
	default:
		return NodeStatusPending
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
