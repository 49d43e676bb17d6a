package approval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/data"
	"github.com/veilspire/realmgov/src/types"
)

const trustedRole = "role-board"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := data.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, kind string) string {
	t.Helper()
	app := types.Application{
		ID:     uuid.NewString(),
		Kind:   kind,
		Name:   "Avalon",
		Status: types.StatusPending,
		Data:   types.ApplicationData{NationName: "Avalon", Color: "#113355", CapitalName: "Camelot"},
	}
	if kind == types.KindSettlement {
		app.Data = types.ApplicationData{SettlementName: "Camelot", ParentNation: "Avalon", Coordinates: "120,-340"}
	}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app.ID
}

func review(appID, reviewer, decision string) Review {
	return Review{
		ApplicationID:     appID,
		ReviewerDiscordID: reviewer,
		ReviewerRoleIDs:   []string{"other-role", trustedRole},
		Decision:          decision,
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestQuorumFinalizesOnce(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 2)
	ctx := context.Background()
	appID := seedApplication(t, db, types.KindNation)

	out, err := e.SubmitReview(ctx, review(appID, "rev-1", types.DecisionApprove))
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	if out.Finalized || out.Application.Status != types.StatusPending {
		t.Fatalf("one approval must not finalize, got %+v", out)
	}
	if n := countRows(t, db, "nations"); n != 0 {
		t.Fatalf("no nation before quorum, got %d", n)
	}

	out, err = e.SubmitReview(ctx, review(appID, "rev-2", types.DecisionApprove))
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if !out.Finalized || out.Application.Status != types.StatusApproved {
		t.Fatalf("second approval must finalize, got %+v", out)
	}
	if n := countRows(t, db, "nations"); n != 1 {
		t.Fatalf("expected exactly one nation, got %d", n)
	}

	// A third approval after the decision changes nothing.
	out, err = e.SubmitReview(ctx, review(appID, "rev-3", types.DecisionApprove))
	if err != nil {
		t.Fatalf("third review: %v", err)
	}
	if out.Finalized {
		t.Fatalf("a review after finalization must not report finalized")
	}
	if n := countRows(t, db, "nations"); n != 1 {
		t.Fatalf("quorum must create exactly one nation, got %d", n)
	}

	var nation types.Nation
	if err := db.First(&nation, "application_id = ?", appID).Error; err != nil {
		t.Fatalf("load nation: %v", err)
	}
	if nation.Name != "Avalon" || nation.CapitalName != "Camelot" {
		t.Fatalf("nation must carry the application data, got %+v", nation)
	}
}

func TestSettlementQuorum(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 1)
	appID := seedApplication(t, db, types.KindSettlement)

	out, err := e.SubmitReview(context.Background(), review(appID, "rev-1", types.DecisionApprove))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !out.Finalized {
		t.Fatalf("quorum of one must finalize on the first approval")
	}

	var s types.Settlement
	if err := db.First(&s, "application_id = ?", appID).Error; err != nil {
		t.Fatalf("load settlement: %v", err)
	}
	if s.Name != "Camelot" || s.NationName != "Avalon" || s.Coordinates != "120,-340" {
		t.Fatalf("settlement must carry the application data, got %+v", s)
	}
}

func TestVoteChangeKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 2)
	ctx := context.Background()
	appID := seedApplication(t, db, types.KindNation)

	if _, err := e.SubmitReview(ctx, review(appID, "rev-1", types.DecisionApprove)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	out, err := e.SubmitReview(ctx, review(appID, "rev-1", types.DecisionReject))
	if err != nil {
		t.Fatalf("change vote: %v", err)
	}

	if n := countRows(t, db, "application_reviews"); n != 1 {
		t.Fatalf("a changed vote must keep one review row, got %d", n)
	}
	if out.Application.Approvals != 0 || out.Application.Rejects != 1 {
		t.Fatalf("tallies must follow the latest decision, got %+v", out.Application)
	}

	var rev types.ApplicationReview
	if err := db.First(&rev, "application_id = ?", appID).Error; err != nil {
		t.Fatalf("load review: %v", err)
	}
	if rev.Decision != types.DecisionReject {
		t.Fatalf("stored decision must be the latest one, got %q", rev.Decision)
	}
}

func TestRejectsNeverFinalize(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 1)
	ctx := context.Background()
	appID := seedApplication(t, db, types.KindNation)

	for i := 0; i < 3; i++ {
		out, err := e.SubmitReview(ctx, review(appID, fmt.Sprintf("rev-%d", i), types.DecisionReject))
		if err != nil {
			t.Fatalf("reject %d: %v", i, err)
		}
		if out.Finalized || out.Application.Status != types.StatusPending {
			t.Fatalf("rejects must never finalize, got %+v", out)
		}
	}
	if n := countRows(t, db, "nations"); n != 0 {
		t.Fatalf("rejects must not create entities, got %d", n)
	}
}

func TestUnauthorizedReviewer(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 1)
	appID := seedApplication(t, db, types.KindNation)

	r := review(appID, "rev-1", types.DecisionApprove)
	r.ReviewerRoleIDs = []string{"some-other-role"}
	if _, err := e.SubmitReview(context.Background(), r); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if n := countRows(t, db, "application_reviews"); n != 0 {
		t.Fatalf("unauthorized reviews must leave no rows, got %d", n)
	}
}

func TestUnknownDecisionAndMissingApplication(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, trustedRole, 1)
	ctx := context.Background()

	if _, err := e.SubmitReview(ctx, review("whatever", "rev-1", "maybe")); !errors.Is(err, ErrUnknownDecision) {
		t.Fatalf("expected ErrUnknownDecision, got %v", err)
	}
	if _, err := e.SubmitReview(ctx, review(uuid.NewString(), "rev-1", types.DecisionApprove)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
