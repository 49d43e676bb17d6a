package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/veilspire/realmgov/src/types"
)

const maxEmbedDescription = 4096

// Truncate shortens s to at most max runes, appending an ellipsis when it
// had to cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

func kindLabel(kind string) string {
	switch kind {
	case types.KindNation:
		return "Nation"
	case types.KindSettlement:
		return "Settlement"
	default:
		return "Community"
	}
}

// ReviewButtons builds the approve/reject row for an application message.
// The custom id format is app:<application_id>:<decision>.
func ReviewButtons(appID string, disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: "app:" + appID + ":" + types.DecisionApprove,
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Reject",
					Style:    discordgo.DangerButton,
					CustomID: "app:" + appID + ":" + types.DecisionReject,
					Disabled: disabled,
				},
			},
		},
	}
}

// ReviewEmbed renders the single evolving message for an application:
// live tallies while pending, an approved banner once finalized.
func ReviewEmbed(app *types.Application, required int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       kindLabel(app.Kind) + " application: " + app.Name,
		Description: Truncate(app.Description, maxEmbedDescription),
		Color:       0x3498db,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Application " + app.ID},
	}
	if app.RequesterDiscordID != nil && *app.RequesterDiscordID != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   "Requested by",
			Value:  "<@" + *app.RequesterDiscordID + ">",
			Inline: true,
		})
	}
	if app.Status == types.StatusApproved {
		e.Color = 0x2ecc71
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  "Status",
			Value: "✅ Approved",
		})
		return e
	}
	e.Fields = append(e.Fields,
		&discordgo.MessageEmbedField{
			Name:   "Approvals",
			Value:  fmt.Sprintf("%d / %d", app.Approvals, required),
			Inline: true,
		},
		&discordgo.MessageEmbedField{
			Name:   "Rejects",
			Value:  strconv.Itoa(app.Rejects),
			Inline: true,
		},
	)
	return e
}

// ContractEmbed renders the public posting for a freshly mirrored contract.
func ContractEmbed(c *types.Contract) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: Truncate(c.Description, maxEmbedDescription),
		Color:       0x2ecc71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Currency", Value: c.Currency, Inline: true},
			{Name: "Posted by", Value: c.OwnerName, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Contract " + c.ID},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
