package entities

// Warning is one moderation strike against a user
type Warning struct {
	Reason   string   `json:"reason"`
	IssuedBy string   `json:"mod"`
	IssuedAt UnixTime `json:"timestamp"`
}
