package interactions

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandInvite           = "invite"
	CommandContractsSetup   = "contracts-setup"
	CommandContractsUnsetup = "contracts-unsetup"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandInvite: {
		Name:        CommandInvite,
		Description: "Get the invite link for this bot",
	},
	CommandContractsSetup: {
		Name:        CommandContractsSetup,
		Description: "Mirror a forum channel onto the contracts board",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Forum channel whose threads become contracts",
				Required:    true,
			},
		},
	},
	CommandContractsUnsetup: {
		Name:        CommandContractsUnsetup,
		Description: "Stop mirroring a forum channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Forum channel to stop mirroring",
				Required:    true,
			},
		},
	},
}

var defaultCommandOrder = []string{
	CommandInvite,
	CommandContractsSetup,
	CommandContractsUnsetup,
}

// RegisterCommands registers the slash commands for a guild. Re-registering
// an existing command is tolerated so restarts stay quiet.
func RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	if appID == "" || guildID == "" {
		return fmt.Errorf("interactions: appID and guildID are required to register commands")
	}

	var failures []string
	for _, name := range defaultCommandOrder {
		definition := commandDefinitions[name]
		if _, err := s.ApplicationCommandCreate(appID, guildID, definition); err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("interactions: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("interactions: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("interactions: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if strings.Contains(strings.ToLower(restErr.Message.Message), "already exists") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

// InviteURL builds the install link for the application with the read and
// post permissions the gateway needs.
func InviteURL(appID string) string {
	perms := discordgo.PermissionViewChannel |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionSendMessages
	return fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot%%20applications.commands&permissions=%d",
		appID, perms,
	)
}
