package entities

// LeaderboardPointer locates the live leaderboard message of a guild
type LeaderboardPointer struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// IsSet checks that both references are present
func (p *LeaderboardPointer) IsSet() bool {
	return p != nil && p.ChannelID != "" && p.MessageID != ""
}
