package domain

type ParticipationState string

const (
	StateNotJoined ParticipationState = "not_joined"
	StateJoined    ParticipationState = "joined"
	StateJoining   ParticipationState = "joining"
	StateLeaving   ParticipationState = "leaving"
)

// InFlight reports whether a join or leave request is outstanding.
func (s ParticipationState) InFlight() bool {
	return s == StateJoining || s == StateLeaving
}

// Participating is the flag shown to the user. While a request is in flight
// it keeps the pre-transition value.
func (s ParticipationState) Participating() bool {
	return s == StateJoined || s == StateLeaving
}

// StateFor mirrors the backend's isUserParticipating flag.
func StateFor(participating bool) ParticipationState {
	if participating {
		return StateJoined
	}
	return StateNotJoined
}
