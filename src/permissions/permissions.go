// Package permissions computes the bot's effective permission bits for a
// channel. The layering order follows Discord's documented resolution and
// decides whether the bot may mirror a forum, so it must not be reordered.
package permissions

import "github.com/bwmarrin/discordgo"

// Effective resolves the permission bits memberID holds in a channel:
// the @everyone base (role id equals guild id), union of the member's role
// permissions, then channel overwrites in order: @everyone first, the
// member's role overwrites next, a member-specific overwrite last. Each
// overwrite applies as (bits AND NOT deny) OR allow.
func Effective(guildID string, memberRoleIDs []string, roles []*discordgo.Role, overwrites []*discordgo.PermissionOverwrite, memberID string) int64 {
	held := make(map[string]bool, len(memberRoleIDs))
	for _, id := range memberRoleIDs {
		held[id] = true
	}

	var bits int64
	for _, r := range roles {
		if r.ID == guildID {
			bits |= r.Permissions
		}
	}
	for _, r := range roles {
		if held[r.ID] {
			bits |= r.Permissions
		}
	}

	for _, ow := range overwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeRole && ow.ID == guildID {
			bits = (bits &^ ow.Deny) | ow.Allow
		}
	}
	// Order among role overwrites does not matter, but each applies once.
	for _, ow := range overwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeRole && ow.ID != guildID && held[ow.ID] {
			bits = (bits &^ ow.Deny) | ow.Allow
		}
	}
	for _, ow := range overwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && memberID != "" && ow.ID == memberID {
			bits = (bits &^ ow.Deny) | ow.Allow
		}
	}
	return bits
}

func CanViewChannel(bits int64) bool {
	return bits&(discordgo.PermissionViewChannel|discordgo.PermissionAdministrator) != 0
}

func CanReadMessageHistory(bits int64) bool {
	return bits&(discordgo.PermissionReadMessageHistory|discordgo.PermissionAdministrator) != 0
}

// Missing names the capabilities the bot needs for mirroring that bits does
// not grant. Administrator implies everything.
func Missing(bits int64) []string {
	var missing []string
	if !CanViewChannel(bits) {
		missing = append(missing, "View Channel")
	}
	if !CanReadMessageHistory(bits) {
		missing = append(missing, "Read Message History")
	}
	return missing
}
