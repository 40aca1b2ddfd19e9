package gate

import (
	"log/slog"
)

// Role determines how an active gate affects recording.
type Role string

// Gate roles.
const (
	// RoleLock pauses all activity while active.
	RoleLock Role = "lock"
	// RoleLevelInhibit suppresses level-triggered recording while active.
	RoleLevelInhibit Role = "level_inhibit"
	// RoleTrigger starts and holds a file-triggered recording while active.
	RoleTrigger Role = "trigger"
)

// Edge is a change of a gate's state observed by Evaluate.
type Edge struct {
	Gate    string
	Role    Role
	Engaged bool // true when the gate became active, false when it was released
}

// Status is the combined gate state for one poll.
type Status struct {
	Locked       bool
	LockedBy     []string
	LevelEnabled bool
	Triggered    bool
	Edges        []Edge
}

type entry struct {
	gate   Gate
	role   Role
	active bool
}

// Set evaluates a group of gates and tracks their edges. Every gate starts
// inactive, so a gate that is already active on the first poll produces an
// engaged edge. Set is not safe for concurrent use.
type Set struct {
	entries []*entry
}

// NewSet creates an empty gate set.
func NewSet() *Set {
	return &Set{}
}

// Add registers a gate under role.
func (s *Set) Add(role Role, g Gate) {
	s.entries = append(s.entries, &entry{gate: g, role: role})
}

// Len returns the number of registered gates.
func (s *Set) Len() int {
	return len(s.entries)
}

// Evaluate samples every gate once, logs each edge and returns the combined status.
func (s *Set) Evaluate() Status {
	status := Status{LevelEnabled: true}

	for _, e := range s.entries {
		active := e.gate.Active()
		if active != e.active {
			e.active = active
			edge := Edge{Gate: e.gate.Name(), Role: e.role, Engaged: active}
			status.Edges = append(status.Edges, edge)
			logEdge(edge)
		}

		if !active {
			continue
		}
		switch e.role {
		case RoleLock:
			status.Locked = true
			status.LockedBy = append(status.LockedBy, e.gate.Name())
		case RoleLevelInhibit:
			status.LevelEnabled = false
		case RoleTrigger:
			status.Triggered = true
		}
	}

	return status
}

// ActiveLocks samples the lock gates and returns the names of the active ones.
// It does not record edges.
func (s *Set) ActiveLocks() []string {
	var names []string
	for _, e := range s.entries {
		if e.role == RoleLock && e.gate.Active() {
			names = append(names, e.gate.Name())
		}
	}
	return names
}

func logEdge(edge Edge) {
	switch {
	case edge.Role == RoleLock && edge.Engaged:
		slog.Info("recording paused", "gate", edge.Gate)
	case edge.Role == RoleLock:
		slog.Info("recording resumed", "gate", edge.Gate)
	case edge.Role == RoleLevelInhibit && edge.Engaged:
		slog.Info("level triggering disabled", "gate", edge.Gate)
	case edge.Role == RoleLevelInhibit:
		slog.Info("level triggering enabled", "gate", edge.Gate)
	case edge.Role == RoleTrigger && edge.Engaged:
		slog.Info("trigger file appeared", "gate", edge.Gate)
	default:
		slog.Info("trigger file removed", "gate", edge.Gate)
	}
}
