// Package forums tracks which forum channel feeds the contract ingestion
// pipeline for each guild.
package forums

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilspire/realmgov/src/types"
)

var ErrNotRegistered = errors.New("forums: not registered")

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Register enables ingestion for a forum channel. Re-registering an existing
// (guild, channel) pair re-enables it and refreshes the guild name.
func (s *Store) Register(ctx context.Context, guildID, forumChannelID, guildName string) error {
	f := types.SourceForum{
		GuildID:        guildID,
		ForumChannelID: forumChannelID,
		GuildName:      guildName,
		Enabled:        true,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "forum_channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guild_name", "enabled", "updated_at"}),
	}).Create(&f).Error
}

// Unregister disables ingestion for a forum channel. Unregistering a pair
// that was never registered returns ErrNotRegistered.
func (s *Store) Unregister(ctx context.Context, guildID, forumChannelID string) error {
	res := s.db.WithContext(ctx).Model(&types.SourceForum{}).
		Where("guild_id = ? AND forum_channel_id = ?", guildID, forumChannelID).
		Update("enabled", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotRegistered
	}
	return nil
}

// Lookup returns the enabled registration for the pair, or nil when the
// forum does not feed the pipeline.
func (s *Store) Lookup(ctx context.Context, guildID, forumChannelID string) (*types.SourceForum, error) {
	var f types.SourceForum
	err := s.db.WithContext(ctx).
		First(&f, "guild_id = ? AND forum_channel_id = ? AND enabled = ?", guildID, forumChannelID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) List(ctx context.Context) ([]types.SourceForum, error) {
	var fs []types.SourceForum
	err := s.db.WithContext(ctx).Order("guild_id, forum_channel_id").Find(&fs).Error
	return fs, err
}
