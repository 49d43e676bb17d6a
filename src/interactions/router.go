// Package interactions dispatches verified Discord interaction payloads.
// The HTTP layer checks the request signature before anything here runs;
// handlers turn every failure into a user-visible response, so callers never
// see an error, only an InteractionResponse to serialize.
package interactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/veilspire/realmgov/src/approval"
	"github.com/veilspire/realmgov/src/data"
	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/notify"
	"github.com/veilspire/realmgov/src/permissions"
	"github.com/veilspire/realmgov/src/types"
)

// GuildClient is the slice of the Discord REST surface the router needs,
// satisfied by *discordgo.Session.
type GuildClient interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type Router struct {
	discord GuildClient
	forums  *forums.Store
	engine  *approval.Engine
	rdb     *redis.Client
	appID   string
}

func NewRouter(discord GuildClient, forumStore *forums.Store, engine *approval.Engine, rdb *redis.Client, appID string) *Router {
	return &Router{discord: discord, forums: forumStore, engine: engine, rdb: rdb, appID: appID}
}

// Dispatch routes a verified raw interaction payload.
func (r *Router) Dispatch(ctx context.Context, raw []byte) *discordgo.InteractionResponse {
	var in discordgo.Interaction
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("interactions: unparseable payload: %v", err)
		return invalidInteraction()
	}

	switch in.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
		return r.handleCommand(ctx, &in)
	case discordgo.InteractionMessageComponent:
		return r.handleComponent(ctx, &in)
	default:
		return invalidInteraction()
	}
}

func (r *Router) handleCommand(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse {
	cmd := in.ApplicationCommandData()
	switch cmd.Name {
	case CommandInvite:
		return ephemeral("Invite me: <" + InviteURL(r.appID) + ">")
	case CommandContractsSetup:
		return r.handleSetup(ctx, in, cmd)
	case CommandContractsUnsetup:
		return r.handleUnsetup(ctx, in, cmd)
	default:
		return invalidInteraction()
	}
}

func (r *Router) handleSetup(ctx context.Context, in *discordgo.Interaction, cmd discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	if !isAdmin(in) {
		return ephemeral("Administrator permission is required for /" + CommandContractsSetup + ".")
	}
	channelID := channelOption(cmd)
	if channelID == "" {
		return ephemeral("A channel option is required.")
	}

	// The client usually resolves the chosen channel; when it does, the type
	// must be a forum. When it does not, proceed but note the ambiguity.
	if resolved := resolvedChannel(cmd, channelID); resolved != nil {
		if resolved.Type != discordgo.ChannelTypeGuildForum {
			return ephemeral(fmt.Sprintf("<#%s> is not a forum channel.", channelID))
		}
	} else {
		log.Printf("interactions: channel %s not resolved in setup payload, proceeding", channelID)
	}

	missing, err := r.missingBotPermissions(ctx, in.GuildID, channelID)
	if err != nil {
		log.Printf("interactions: permission check for %s failed: %v", channelID, err)
		return ephemeral("Failed to reach Discord while checking channel permissions.")
	}
	if len(missing) > 0 {
		return ephemeral(fmt.Sprintf("I need %s in <#%s> before mirroring it.",
			strings.Join(missing, " and "), channelID))
	}

	guildName := ""
	if g, err := r.discord.Guild(in.GuildID, discordgo.WithContext(ctx)); err == nil {
		guildName = g.Name
	}
	if err := r.forums.Register(ctx, in.GuildID, channelID, guildName); err != nil {
		log.Printf("interactions: forum registration failed: %v", err)
		return ephemeral("Failed to save the forum registration.")
	}
	return ephemeral(fmt.Sprintf("Contracts will now be mirrored from <#%s>.", channelID))
}

func (r *Router) handleUnsetup(ctx context.Context, in *discordgo.Interaction, cmd discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	if !isAdmin(in) {
		return ephemeral("Administrator permission is required for /" + CommandContractsUnsetup + ".")
	}
	channelID := channelOption(cmd)
	if channelID == "" {
		return ephemeral("A channel option is required.")
	}
	err := r.forums.Unregister(ctx, in.GuildID, channelID)
	if errors.Is(err, forums.ErrNotRegistered) {
		return ephemeral(fmt.Sprintf("<#%s> was not being mirrored.", channelID))
	}
	if err != nil {
		log.Printf("interactions: forum unregistration failed: %v", err)
		return ephemeral("Failed to remove the forum registration.")
	}
	return ephemeral(fmt.Sprintf("Stopped mirroring <#%s>.", channelID))
}

func (r *Router) handleComponent(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse {
	appID, decision, ok := ParseCustomID(in.MessageComponentData().CustomID)
	if !ok || in.Member == nil || in.Member.User == nil {
		return invalidInteraction()
	}

	out, err := r.engine.SubmitReview(ctx, approval.Review{
		ApplicationID:     appID,
		ReviewerDiscordID: in.Member.User.ID,
		ReviewerRoleIDs:   in.Member.Roles,
		Decision:          decision,
	})
	switch {
	case errors.Is(err, approval.ErrNotAuthorized):
		return ephemeral("Only trusted board members can review applications.")
	case errors.Is(err, approval.ErrNotFound):
		return ephemeral("This application no longer exists.")
	case err != nil:
		log.Printf("interactions: review on %s failed: %v", appID, err)
		return ephemeral("Failed to record your review. Please try again.")
	}

	app := &out.Application
	if out.Finalized {
		if err := data.PublishEvent(ctx, r.rdb, map[string]interface{}{
			"type":           "application_finalized",
			"application_id": app.ID,
			"kind":           app.Kind,
			"name":           app.Name,
		}); err != nil {
			log.Printf("interactions: finalize event for %s not published: %v", app.ID, err)
		}
	}

	// Edit the originating message in place so each application keeps one
	// evolving review message.
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{notify.ReviewEmbed(app, r.engine.RequiredApprovals())},
			Components: notify.ReviewButtons(app.ID, app.Status != types.StatusPending),
		},
	}
}

func (r *Router) missingBotPermissions(ctx context.Context, guildID, channelID string) ([]string, error) {
	roles, err := r.discord.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	me, err := r.discord.GuildMember(guildID, r.appID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bot member: %w", err)
	}
	ch, err := r.discord.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	bits := permissions.Effective(guildID, me.Roles, roles, ch.PermissionOverwrites, r.appID)
	return permissions.Missing(bits), nil
}

// ParseCustomID splits a button id of the form app:<application_id>:<decision>.
func ParseCustomID(id string) (appID, decision string, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] != "app" || parts[1] == "" {
		return "", "", false
	}
	if parts[2] != types.DecisionApprove && parts[2] != types.DecisionReject {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func isAdmin(in *discordgo.Interaction) bool {
	return in.Member != nil && in.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func channelOption(cmd discordgo.ApplicationCommandInteractionData) string {
	for _, opt := range cmd.Options {
		if opt.Name == "channel" {
			if s, ok := opt.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

func resolvedChannel(cmd discordgo.ApplicationCommandInteractionData, channelID string) *discordgo.Channel {
	if cmd.Resolved == nil {
		return nil
	}
	return cmd.Resolved.Channels[channelID]
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func invalidInteraction() *discordgo.InteractionResponse {
	return ephemeral("Invalid interaction.")
}
