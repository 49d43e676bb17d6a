package types

import (
	"fmt"
	"time"
)

const (
	KindNation     = "nation"
	KindSettlement = "settlement"

	StatusPending  = "pending"
	StatusApproved = "approved"
	// StatusRejected exists for schema parity with the community site. No
	// workflow path transitions into it: reject votes are tallied but never
	// finalize an application.
	StatusRejected = "rejected"

	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ApplicationData carries the kind-specific claim fields submitted with an
// application. Exactly one shape is meaningful per kind; Validate enforces it
// at the intake boundary so finalization can trust the fields it copies.
type ApplicationData struct {
	// Nation claims
	NationName  string `json:"nation_name,omitempty"`
	Color       string `json:"color,omitempty"`
	CapitalName string `json:"capital_name,omitempty"`

	// Settlement claims
	SettlementName string `json:"settlement_name,omitempty"`
	ParentNation   string `json:"parent_nation,omitempty"`
	Coordinates    string `json:"coordinates,omitempty"`
}

func (d ApplicationData) Validate(kind string) error {
	switch kind {
	case KindNation:
		if d.NationName == "" {
			return fmt.Errorf("nation application is missing nation_name")
		}
		if d.SettlementName != "" {
			return fmt.Errorf("nation application carries settlement fields")
		}
	case KindSettlement:
		if d.SettlementName == "" {
			return fmt.Errorf("settlement application is missing settlement_name")
		}
		if d.NationName != "" {
			return fmt.Errorf("settlement application carries nation fields")
		}
	default:
		return fmt.Errorf("unknown application kind %q", kind)
	}
	return nil
}

type Application struct {
	ID                 string          `gorm:"size:36;primaryKey" json:"id"`
	Kind               string          `gorm:"size:16;not null" json:"kind"` // nation|settlement
	Name               string          `gorm:"size:255;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	Data               ApplicationData `gorm:"type:json;serializer:json" json:"data"`
	RequesterProfileID *string         `gorm:"size:36" json:"requester_profile_id,omitempty"`
	RequesterDiscordID *string         `gorm:"size:32" json:"requester_discord_id,omitempty"`
	Status             string          `gorm:"size:16;not null;default:pending" json:"status"`
	Approvals          int             `gorm:"not null;default:0" json:"approvals"`
	Rejects            int             `gorm:"not null;default:0" json:"rejects"`
	DiscordMessageID   string          `gorm:"size:32" json:"discord_message_id,omitempty"`
	DiscordChannelID   string          `gorm:"size:32" json:"discord_channel_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ApplicationReview is one reviewer's latest decision. The unique index makes
// a repeat press by the same reviewer an overwrite, never a second vote.
type ApplicationReview struct {
	ID                uint64    `gorm:"primaryKey" json:"id"`
	ApplicationID     string    `gorm:"size:36;not null;uniqueIndex:ux_app_reviewer,priority:1" json:"application_id"`
	ReviewerDiscordID string    `gorm:"size:32;not null;uniqueIndex:ux_app_reviewer,priority:2" json:"reviewer_discord_id"`
	Decision          string    `gorm:"size:16;not null" json:"decision"` // approve|reject
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SourceForum struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	GuildID        string    `gorm:"size:32;not null;uniqueIndex:ux_guild_forum,priority:1" json:"guild_id"`
	ForumChannelID string    `gorm:"size:32;not null;uniqueIndex:ux_guild_forum,priority:2" json:"forum_channel_id"`
	GuildName      string    `gorm:"size:255" json:"guild_name"`
	Enabled        bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ThreadMirror is the ingestion dedup ledger: a row's existence means the
// source thread already produced a contract.
type ThreadMirror struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	SourceGuildID  string    `gorm:"size:32;not null" json:"source_guild_id"`
	SourceThreadID string    `gorm:"size:32;not null;uniqueIndex" json:"source_thread_id"`
	ContractID     string    `gorm:"size:36;not null" json:"contract_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type Contract struct {
	ID              string     `gorm:"size:36;primaryKey" json:"id"`
	Title           string     `gorm:"size:120;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Status          string     `gorm:"size:16;not null;default:open" json:"status"`
	Currency        string     `gorm:"size:32" json:"currency"`
	OwnerName       string     `gorm:"size:64" json:"owner_name"`
	DiscordPostedAt *time.Time `json:"discord_posted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Nation struct {
	ID              string    `gorm:"size:36;primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Color           string    `gorm:"size:16" json:"color"`
	CapitalName     string    `gorm:"size:255" json:"capital_name"`
	LeaderProfileID *string   `gorm:"size:36" json:"leader_profile_id,omitempty"`
	ApplicationID   string    `gorm:"size:36;index" json:"application_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type Settlement struct {
	ID               string    `gorm:"size:36;primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	NationName       string    `gorm:"size:255" json:"nation_name"`
	Coordinates      string    `gorm:"size:64" json:"coordinates"`
	FounderProfileID *string   `gorm:"size:36" json:"founder_profile_id,omitempty"`
	ApplicationID    string    `gorm:"size:36;index" json:"application_id"`
	CreatedAt        time.Time `json:"created_at"`
}
