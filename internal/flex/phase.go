package flex

// PhaseFlags are the behavior bits stored above the group in a particle phase.
type PhaseFlags int32

const (
	// PhaseGroupMask selects the group bits of a phase.
	PhaseGroupMask int32 = 0x000fffff

	// PhaseSelfCollide lets particles of the same group collide with each other.
	PhaseSelfCollide PhaseFlags = 1 << 20
	// PhaseSelfCollideFilter skips same-group pairs that overlap at rest.
	PhaseSelfCollideFilter PhaseFlags = 1 << 21
	// PhaseFluid marks particles that take part in the fluid density solve.
	PhaseFluid PhaseFlags = 1 << 22
)

// MakePhase packs a collision group and flags into a particle phase.
func MakePhase(group int32, flags PhaseFlags) int32 {
	return group&PhaseGroupMask | int32(flags)
}

// PhaseGroup returns the group part of a phase.
func PhaseGroup(phase int32) int32 { return phase & PhaseGroupMask }

// PhaseHas reports whether all of flags are set on phase.
func PhaseHas(phase int32, flags PhaseFlags) bool {
	return PhaseFlags(phase)&flags == flags
}
