package planning

import "errors"

// Sentinel errors returned by the planner
var (
	// ErrNotExplored is returned when a sweep or backup is requested before
	// reachability analysis has discovered any state.
	ErrNotExplored = errors.New("planning: no state has been explored yet")

	// ErrUnknownState is returned for keys that were never discovered
	ErrUnknownState = errors.New("planning: state was not discovered")

	// ErrInvalidDistribution is returned when a model lists negative or NaN
	// probabilities, or probabilities that do not sum to 1.
	ErrInvalidDistribution = errors.New("planning: invalid transition distribution")

	// ErrDeadEnd is returned for non-terminal states without applicable actions
	// when the dead end policy is DeadEndError.
	ErrDeadEnd = errors.New("planning: non-terminal state has no applicable actions")

	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("planning: invalid configuration")

	// ErrNoSeeds is returned when a plan is requested without seeds on an empty planner
	ErrNoSeeds = errors.New("planning: no seed states")
)
