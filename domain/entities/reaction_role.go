package entities

// ReactionRoles maps message id -> emoji -> role id for one guild
type ReactionRoles map[string]map[string]string

// RoleFor returns the role granted by reacting to a message with an emoji
func (r ReactionRoles) RoleFor(messageID, emoji string) (string, bool) {
	roles, ok := r[messageID]
	if !ok {
		return "", false
	}
	roleID, ok := roles[emoji]
	return roleID, ok
}
