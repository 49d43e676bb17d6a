package notify

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/veilspire/realmgov/src/types"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("want abc…, got %q", got)
	}
	// Rune-aware: multibyte characters are never split.
	if got := Truncate("ный договор", 4); got != "ный…" {
		t.Fatalf("want ный…, got %q", got)
	}
	if got := Truncate("ab", 0); got != "" {
		t.Fatalf("max 0 yields empty, got %q", got)
	}
}

func TestReviewButtons(t *testing.T) {
	row, ok := ReviewButtons("abc-123", false)[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 2 {
		t.Fatalf("expected one row with two buttons")
	}
	approve := row.Components[0].(discordgo.Button)
	reject := row.Components[1].(discordgo.Button)
	if approve.CustomID != "app:abc-123:approve" || reject.CustomID != "app:abc-123:reject" {
		t.Fatalf("unexpected custom ids: %q %q", approve.CustomID, reject.CustomID)
	}
	if approve.Disabled || reject.Disabled {
		t.Fatalf("buttons start enabled")
	}

	row = ReviewButtons("abc-123", true)[0].(discordgo.ActionsRow)
	if !row.Components[0].(discordgo.Button).Disabled {
		t.Fatalf("finalized applications get disabled buttons")
	}
}

func TestReviewEmbed(t *testing.T) {
	requester := "user-9"
	app := &types.Application{
		ID:                 "abc-123",
		Kind:               types.KindNation,
		Name:               "Avalon",
		Description:        strings.Repeat("x", maxEmbedDescription+50),
		Status:             types.StatusPending,
		Approvals:          1,
		Rejects:            0,
		RequesterDiscordID: &requester,
	}

	e := ReviewEmbed(app, 3)
	if !strings.Contains(e.Title, "Nation application") || !strings.Contains(e.Title, "Avalon") {
		t.Fatalf("unexpected title %q", e.Title)
	}
	if got := len([]rune(e.Description)); got > maxEmbedDescription {
		t.Fatalf("description exceeds the embed limit: %d runes", got)
	}
	var tally string
	for _, f := range e.Fields {
		if f.Name == "Approvals" {
			tally = f.Value
		}
	}
	if tally != "1 / 3" {
		t.Fatalf("expected live tally 1 / 3, got %q", tally)
	}

	app.Status = types.StatusApproved
	e = ReviewEmbed(app, 3)
	approved := false
	for _, f := range e.Fields {
		if f.Name == "Status" && strings.Contains(f.Value, "Approved") {
			approved = true
		}
		if f.Name == "Approvals" {
			t.Fatalf("approved embed must drop the live tally")
		}
	}
	if !approved {
		t.Fatalf("approved embed must carry the status banner")
	}
}
