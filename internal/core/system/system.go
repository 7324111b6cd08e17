package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: controller input / external commands
	PhasePreUpdate               // 1: condition ticking
	PhaseUpdate                  // 2: creature think / attack
	PhasePostUpdate              // 3: regen, respawn, visibility
	PhaseCleanup                 // 4: destroy queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
