package domain

// Participant is owned by Event and replaced wholesale on every refetch.
type Participant struct {
	UserID          int64  `json:"userId"`
	UserName        string `json:"userName"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Event is the backend's activity record. IsUserParticipating is computed by
// the backend for the calling user and is the only durable participation fact.
type Event struct {
	ID                  int64         `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Location            string        `json:"location,omitempty"`
	ImageURL            string        `json:"imageUrl,omitempty"`
	StartDate           *Timestamp    `json:"startDate,omitempty"`
	MaxParticipants     int           `json:"maxParticipants"`
	CurrentParticipants int           `json:"currentParticipants"`
	IsFull              bool          `json:"isFull"`
	CreatedByUserID     int64         `json:"createdByUserId"`
	IsUserParticipating bool          `json:"isUserParticipating"`
	Participants        []Participant `json:"participants"`
}

// Clone returns a copy that shares nothing with e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	if e.StartDate != nil {
		ts := *e.StartDate
		out.StartDate = &ts
	}
	out.Participants = append([]Participant(nil), e.Participants...)
	return &out
}

// JoinResult is the backend's answer to a join request. Status is optional
// ("EventFull", "CanJoin", ...) and is only recorded, never branched on.
type JoinResult struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}
