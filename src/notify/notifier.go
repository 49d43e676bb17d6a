// Package notify is the outbound Discord sink: webhook posts for public
// contract announcements and bot-token messages for application review
// requests. Callers treat failures as partial results: domain rows already
// committed are never rolled back because a notification failed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/veilspire/realmgov/src/types"
)

var ErrNotConfigured = errors.New("notify: destination not configured")

type Notifier struct {
	session         *discordgo.Session
	httpc           *http.Client
	webhookURL      string
	reviewChannelID string
}

// New builds a Notifier. The discordgo session is used for REST calls only;
// the gateway socket is never opened.
func New(botToken, webhookURL, reviewChannelID string) (*Notifier, error) {
	var session *discordgo.Session
	if botToken != "" {
		var err error
		session, err = discordgo.New("Bot " + botToken)
		if err != nil {
			return nil, fmt.Errorf("discord session: %w", err)
		}
	}
	return &Notifier{
		session:         session,
		httpc:           &http.Client{Timeout: 15 * time.Second},
		webhookURL:      webhookURL,
		reviewChannelID: reviewChannelID,
	}, nil
}

// Session exposes the REST session for guild lookups.
func (n *Notifier) Session() *discordgo.Session {
	return n.session
}

// PostContract announces a contract on the configured webhook. The HTTP
// status is checked; failures surface once and are not retried.
func (n *Notifier) PostContract(ctx context.Context, c *types.Contract) error {
	if n.webhookURL == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]interface{}{
		"embeds": []*discordgo.MessageEmbed{ContractEmbed(c)},
	})
	if err != nil {
		return fmt.Errorf("contract webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("contract webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("contract webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("contract webhook: status %d", resp.StatusCode)
	}
	return nil
}

// PostReviewRequest sends the review message with approve/reject buttons to
// the board channel and returns its addresses so the application can track
// its one evolving message.
func (n *Notifier) PostReviewRequest(ctx context.Context, app *types.Application, required int) (channelID, messageID string, err error) {
	if n.session == nil || n.reviewChannelID == "" {
		return "", "", ErrNotConfigured
	}
	msg, err := n.session.ChannelMessageSendComplex(n.reviewChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ReviewEmbed(app, required)},
		Components: ReviewButtons(app.ID, false),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("review request for %s: %w", app.ID, err)
	}
	return msg.ChannelID, msg.ID, nil
}

// UpdateReviewMessage re-renders an application's review message in place,
// used when state changes outside a component interaction.
func (n *Notifier) UpdateReviewMessage(ctx context.Context, app *types.Application, required int) error {
	if n.session == nil || app.DiscordChannelID == "" || app.DiscordMessageID == "" {
		return ErrNotConfigured
	}
	embeds := []*discordgo.MessageEmbed{ReviewEmbed(app, required)}
	components := ReviewButtons(app.ID, app.Status != types.StatusPending)
	_, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    app.DiscordChannelID,
		ID:         app.DiscordMessageID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update review message for %s: %w", app.ID, err)
	}
	return nil
}
