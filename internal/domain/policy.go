package domain

// ActionPolicy tells the UI which participation buttons to offer. It is
// advisory: the controller never consults it, so a join on a full event still
// reaches the backend and comes back as a rejection.
type ActionPolicy struct {
	CanJoin     bool   `json:"canJoin"`
	CanLeave    bool   `json:"canLeave"`
	IsOrganizer bool   `json:"isOrganizer"`
	Reason      string `json:"reason,omitempty"`
}

func CalculateActionPolicy(event *Event, state ParticipationState, userID int64, authenticated bool) ActionPolicy {
	if !authenticated {
		return ActionPolicy{Reason: "auth_required"}
	}
	if event == nil {
		return ActionPolicy{Reason: "event_unavailable"}
	}

	policy := ActionPolicy{IsOrganizer: event.CreatedByUserID == userID}

	if state.InFlight() {
		policy.Reason = "request_in_flight"
		return policy
	}

	if state.Participating() {
		policy.CanLeave = true
		policy.Reason = "already_joined"
		return policy
	}

	if event.IsFull || (event.MaxParticipants > 0 && event.CurrentParticipants >= event.MaxParticipants) {
		policy.Reason = "event_full"
		return policy
	}

	policy.CanJoin = true
	return policy
}
