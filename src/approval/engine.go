// Package approval runs the quorum state machine that turns reviewer
// decisions into nation and settlement records. It is transport-free: the
// interaction layer renders outcomes, this package only mutates state.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilspire/realmgov/src/types"
)

var (
	ErrNotAuthorized   = errors.New("approval: reviewer lacks the trusted board role")
	ErrUnknownDecision = errors.New("approval: unknown decision")
	ErrNotFound        = errors.New("approval: application not found")
)

type Engine struct {
	db                *gorm.DB
	trustedRoleID     string
	requiredApprovals int
}

func NewEngine(db *gorm.DB, trustedRoleID string, requiredApprovals int) *Engine {
	if requiredApprovals < 1 {
		requiredApprovals = 1
	}
	return &Engine{db: db, trustedRoleID: trustedRoleID, requiredApprovals: requiredApprovals}
}

func (e *Engine) RequiredApprovals() int {
	return e.requiredApprovals
}

// Review is one reviewer's decision on an application.
type Review struct {
	ApplicationID     string
	ReviewerDiscordID string
	ReviewerRoleIDs   []string
	Decision          string
}

type Outcome struct {
	Application types.Application
	// Finalized is true only for the review whose conditional update won:
	// exactly one review per application ever reports it.
	Finalized bool
}

// SubmitReview records a decision and finalizes the application once the
// approve quorum is reached. A reviewer pressing again overwrites their
// earlier vote. Finalization is a conditional update on the pending status,
// so racing reviewers create at most one nation or settlement.
func (e *Engine) SubmitReview(ctx context.Context, r Review) (*Outcome, error) {
	if r.Decision != types.DecisionApprove && r.Decision != types.DecisionReject {
		return nil, ErrUnknownDecision
	}
	if e.trustedRoleID != "" && !slices.Contains(r.ReviewerRoleIDs, e.trustedRoleID) {
		return nil, ErrNotAuthorized
	}

	var app types.Application
	if err := e.db.WithContext(ctx).First(&app, "id = ?", r.ApplicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load application: %w", err)
	}

	rev := types.ApplicationReview{
		ApplicationID:     r.ApplicationID,
		ReviewerDiscordID: r.ReviewerDiscordID,
		Decision:          r.Decision,
	}
	if err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}, {Name: "reviewer_discord_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"decision", "updated_at"}),
	}).Create(&rev).Error; err != nil {
		return nil, fmt.Errorf("record review: %w", err)
	}

	approvals, err := e.recount(ctx, r.ApplicationID)
	if err != nil {
		return nil, err
	}

	finalized, err := e.finalize(ctx, &app, approvals)
	if err != nil {
		return nil, err
	}

	if err := e.db.WithContext(ctx).First(&app, "id = ?", r.ApplicationID).Error; err != nil {
		return nil, fmt.Errorf("reload application: %w", err)
	}
	return &Outcome{Application: app, Finalized: finalized}, nil
}

// recount re-derives both counters from the review rows and persists them.
// Counting instead of incrementing keeps vote changes from accumulating.
func (e *Engine) recount(ctx context.Context, appID string) (int64, error) {
	var approvals, rejects int64
	q := e.db.WithContext(ctx).Model(&types.ApplicationReview{})
	if err := q.Where("application_id = ? AND decision = ?", appID, types.DecisionApprove).Count(&approvals).Error; err != nil {
		return 0, fmt.Errorf("count approvals: %w", err)
	}
	q = e.db.WithContext(ctx).Model(&types.ApplicationReview{})
	if err := q.Where("application_id = ? AND decision = ?", appID, types.DecisionReject).Count(&rejects).Error; err != nil {
		return 0, fmt.Errorf("count rejects: %w", err)
	}
	err := e.db.WithContext(ctx).Model(&types.Application{}).Where("id = ?", appID).
		Updates(map[string]interface{}{"approvals": approvals, "rejects": rejects}).Error
	if err != nil {
		return 0, fmt.Errorf("persist tallies: %w", err)
	}
	return approvals, nil
}

func (e *Engine) finalize(ctx context.Context, app *types.Application, approvals int64) (bool, error) {
	if approvals < int64(e.requiredApprovals) {
		return false, nil
	}
	res := e.db.WithContext(ctx).Model(&types.Application{}).
		Where("id = ? AND status = ? AND approvals >= ?", app.ID, types.StatusPending, e.requiredApprovals).
		Update("status", types.StatusApproved)
	if res.Error != nil {
		return false, fmt.Errorf("finalize: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		// Another reviewer's request won, or the application is already
		// decided; either way no entity is created here.
		return false, nil
	}
	if err := e.createEntity(ctx, app); err != nil {
		// The application is already approved at this point; a failed entity
		// insert is repaired by operators rather than blocking the approval.
		log.Printf("approval: entity creation failed for application %s: %v", app.ID, err)
	}
	return true, nil
}

func (e *Engine) createEntity(ctx context.Context, app *types.Application) error {
	switch app.Kind {
	case types.KindNation:
		nation := types.Nation{
			ID:              uuid.NewString(),
			Name:            fallback(app.Data.NationName, app.Name),
			Description:     app.Description,
			Color:           app.Data.Color,
			CapitalName:     app.Data.CapitalName,
			LeaderProfileID: app.RequesterProfileID,
			ApplicationID:   app.ID,
		}
		return e.db.WithContext(ctx).Create(&nation).Error
	case types.KindSettlement:
		settlement := types.Settlement{
			ID:               uuid.NewString(),
			Name:             fallback(app.Data.SettlementName, app.Name),
			Description:      app.Description,
			NationName:       app.Data.ParentNation,
			Coordinates:      app.Data.Coordinates,
			FounderProfileID: app.RequesterProfileID,
			ApplicationID:    app.ID,
		}
		return e.db.WithContext(ctx).Create(&settlement).Error
	default:
		return fmt.Errorf("unknown application kind %q", app.Kind)
	}
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
