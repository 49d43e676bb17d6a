package permissions

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

const (
	guildID = "100"
	roleID  = "200"
	botID   = "300"
)

func baseRoles(everyonePerms, rolePerms int64) []*discordgo.Role {
	return []*discordgo.Role{
		{ID: guildID, Permissions: everyonePerms}, // @everyone
		{ID: roleID, Permissions: rolePerms},
		{ID: "999", Permissions: discordgo.PermissionAdministrator}, // not held
	}
}

func TestEffectiveBaseUnion(t *testing.T) {
	roles := baseRoles(discordgo.PermissionViewChannel, discordgo.PermissionReadMessageHistory)
	bits := Effective(guildID, []string{roleID}, roles, nil, botID)
	if !CanViewChannel(bits) || !CanReadMessageHistory(bits) {
		t.Fatalf("expected union of @everyone and held role bits, got %d", bits)
	}
	if bits&discordgo.PermissionAdministrator != 0 {
		t.Fatalf("unheld role must not contribute bits")
	}
}

func TestEffectiveRoleOverwriteDeny(t *testing.T) {
	roles := baseRoles(discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory, 0)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	bits := Effective(guildID, []string{roleID}, roles, overwrites, botID)
	if CanViewChannel(bits) {
		t.Fatalf("role overwrite deny must remove ViewChannel")
	}
	if !CanReadMessageHistory(bits) {
		t.Fatalf("deny must only strip the denied bit")
	}
}

// The @everyone overwrite applies before role overwrites, so a role-level
// grant wins over an @everyone-level deny regardless of slice order.
func TestEffectiveLayeringOrder(t *testing.T) {
	roles := baseRoles(discordgo.PermissionViewChannel, 0)

	forward := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel},
	}
	reversed := []*discordgo.PermissionOverwrite{forward[1], forward[0]}

	for name, overwrites := range map[string][]*discordgo.PermissionOverwrite{
		"forward": forward, "reversed": reversed,
	} {
		bits := Effective(guildID, []string{roleID}, roles, overwrites, botID)
		if !CanViewChannel(bits) {
			t.Fatalf("%s: role allow must win over @everyone deny", name)
		}
	}
}

func TestEffectiveEveryoneOverwriteGrantsBack(t *testing.T) {
	roles := baseRoles(0, 0)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel},
	}
	bits := Effective(guildID, []string{roleID}, roles, overwrites, botID)
	if !CanViewChannel(bits) {
		t.Fatalf("@everyone overwrite allow must grant ViewChannel")
	}
}

func TestEffectiveMemberOverwriteAppliesLast(t *testing.T) {
	roles := baseRoles(discordgo.PermissionViewChannel, 0)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Deny: discordgo.PermissionViewChannel},
		{ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel},
	}
	bits := Effective(guildID, []string{roleID}, roles, overwrites, botID)
	if CanViewChannel(bits) {
		t.Fatalf("member overwrite deny must override role overwrite allow")
	}
}

func TestMissing(t *testing.T) {
	if got := Missing(0); len(got) != 2 {
		t.Fatalf("expected both capabilities missing, got %v", got)
	}
	if got := Missing(discordgo.PermissionViewChannel); len(got) != 1 || got[0] != "Read Message History" {
		t.Fatalf("expected only Read Message History missing, got %v", got)
	}
	if got := Missing(discordgo.PermissionAdministrator); got != nil {
		t.Fatalf("administrator implies everything, got %v", got)
	}
}
