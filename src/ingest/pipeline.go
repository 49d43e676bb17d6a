// Package ingest turns newly created forum threads into contract records,
// exactly once per source thread.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/types"
)

type Status string

const (
	StatusCreated         Status = "created"
	StatusIgnored         Status = "ignored"
	StatusAlreadyIngested Status = "already_ingested"
)

const (
	maxTitleLen         = 100
	placeholderCurrency = "diamonds"
	placeholderOwner    = "Trade Council"
)

var ErrMissingField = errors.New("ingest: missing field")

// ContractPoster is the outbound sink for freshly mirrored contracts.
type ContractPoster interface {
	PostContract(ctx context.Context, c *types.Contract) error
}

type ThreadEvent struct {
	GuildID        string
	ForumChannelID string
	ThreadID       string
	Title          string
	Body           string
	AuthorName     string
}

func (ev ThreadEvent) validate() error {
	switch {
	case ev.GuildID == "":
		return fmt.Errorf("%w: guild_id", ErrMissingField)
	case ev.ForumChannelID == "":
		return fmt.Errorf("%w: forum_channel_id", ErrMissingField)
	case ev.ThreadID == "":
		return fmt.Errorf("%w: thread_id", ErrMissingField)
	case ev.Title == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	return nil
}

type Result struct {
	Status     Status
	ContractID string
	Posted     bool
}

type Pipeline struct {
	db        *gorm.DB
	forums    *forums.Store
	poster    ContractPoster
	sanitizer *bluemonday.Policy
}

func NewPipeline(db *gorm.DB, forumStore *forums.Store, poster ContractPoster) *Pipeline {
	return &Pipeline{
		db:        db,
		forums:    forumStore,
		poster:    poster,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Ingest runs the per-thread state machine: unregistered forums are ignored,
// already-mirrored threads are terminal no-ops, otherwise the contract and
// its mirror row land in one transaction so a partial failure can never
// leave an orphaned contract.
func (p *Pipeline) Ingest(ctx context.Context, ev ThreadEvent) (*Result, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}

	reg, err := p.forums.Lookup(ctx, ev.GuildID, ev.ForumChannelID)
	if err != nil {
		return nil, fmt.Errorf("forum lookup: %w", err)
	}
	if reg == nil {
		return &Result{Status: StatusIgnored}, nil
	}

	var mirror types.ThreadMirror
	err = p.db.WithContext(ctx).First(&mirror, "source_thread_id = ?", ev.ThreadID).Error
	if err == nil {
		return &Result{Status: StatusAlreadyIngested, ContractID: mirror.ContractID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("mirror lookup: %w", err)
	}

	owner := strings.TrimSpace(p.sanitizer.Sanitize(ev.AuthorName))
	if owner == "" {
		owner = placeholderOwner
	}
	contract := types.Contract{
		ID:          uuid.NewString(),
		Title:       truncateRunes(strings.TrimSpace(p.sanitizer.Sanitize(ev.Title)), maxTitleLen),
		Description: strings.TrimSpace(p.sanitizer.Sanitize(ev.Body)),
		Status:      "open",
		Currency:    placeholderCurrency,
		OwnerName:   owner,
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		return tx.Create(&types.ThreadMirror{
			SourceGuildID:  ev.GuildID,
			SourceThreadID: ev.ThreadID,
			ContractID:     contract.ID,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request mirrored the thread between our lookup and
		// the insert; the unique index on source_thread_id makes this safe.
		if lookupErr := p.db.WithContext(ctx).First(&mirror, "source_thread_id = ?", ev.ThreadID).Error; lookupErr == nil {
			return &Result{Status: StatusAlreadyIngested, ContractID: mirror.ContractID}, nil
		}
		return &Result{Status: StatusAlreadyIngested}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest thread %s: %w", ev.ThreadID, err)
	}

	res := &Result{Status: StatusCreated, ContractID: contract.ID}
	if p.poster != nil {
		if err := p.poster.PostContract(ctx, &contract); err != nil {
			log.Printf("ingest: contract %s created but not posted: %v", contract.ID, err)
		} else {
			now := time.Now()
			if err := p.db.WithContext(ctx).Model(&types.Contract{}).
				Where("id = ?", contract.ID).Update("discord_posted_at", &now).Error; err != nil {
				log.Printf("ingest: failed to stamp discord_posted_at on %s: %v", contract.ID, err)
			}
			res.Posted = true
		}
	}
	return res, nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
