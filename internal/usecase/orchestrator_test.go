package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

func newUpdateFixture(t *testing.T, users ...domain.User) (*UpdateService, *grantRepoMock) {
	t.Helper()
	reg := testRegistry(t)
	repo := newGrantRepoMock()
	grants := NewGrantService(repo, newUserRepoMock(users...), reg, nil)
	templates := NewTemplateService(reg, grants, nil)
	return NewUpdateService(grants, templates, nil), repo
}

func TestUpdatePermissions_RejectsEmptyInput(t *testing.T) {
	svc, _ := newUpdateFixture(t, activeUser("user-7"))
	ctx := context.Background()

	if _, err := svc.UpdatePermissions(ctx, "admin", UpdateInput{UserID: "user-7"}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("empty delta and role: error = %v, want ErrMalformedRequest", err)
	}
	if _, err := svc.UpdatePermissions(ctx, "admin", UpdateInput{Delta: domain.GrantSet{"vendors": {"can_view": true}}}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("missing user id: error = %v, want ErrMalformedRequest", err)
	}
}

func TestUpdatePermissions_DeltaOverridesTemplate(t *testing.T) {
	svc, repo := newUpdateFixture(t, activeUser("user-7"))

	_, err := svc.UpdatePermissions(context.Background(), "admin", UpdateInput{
		UserID: "user-7",
		Role:   "editor",
		Delta:  domain.GrantSet{"vendors": {"can_edit": false}},
	})
	if err != nil {
		t.Fatalf("UpdatePermissions: %v", err)
	}

	stored := repo.snapshot("user-7")
	if !stored.Granted("vendors", "can_view") {
		t.Error("template default not applied")
	}
	if stored.Granted("vendors", "can_edit") {
		t.Error("explicit delta did not override template default")
	}
	if repo.setCalls != 1 {
		t.Errorf("template+delta took %d writes, want 1 atomic write", repo.setCalls)
	}
}

func TestUpdatePermissions_UnknownRoleBeforeStore(t *testing.T) {
	svc, repo := newUpdateFixture(t, activeUser("user-7"))

	_, err := svc.UpdatePermissions(context.Background(), "admin", UpdateInput{UserID: "user-7", Role: "warlock"})
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("error = %v, want ErrUnknownRole", err)
	}
	if repo.setCalls != 0 {
		t.Error("store touched despite unknown role")
	}
}

func TestBulkUpdate_PartialFailureKeepsOtherCommits(t *testing.T) {
	users := []domain.User{activeUser("u1"), activeUser("u2"), activeUser("u3"), activeUser("u4"), activeUser("u5")}
	users[2].IsActive = false // u3
	svc, repo := newUpdateFixture(t, users...)

	outcomes, err := svc.BulkUpdate(context.Background(), "admin", BulkInput{
		UserIDs: []string{"u1", "u2", "u3", "u4", "u5"},
		Delta:   domain.GrantSet{"vendors": {"can_view": true}},
	})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}

	if len(outcomes) != 5 {
		t.Fatalf("len(outcomes) = %d, want 5", len(outcomes))
	}
	for i, outcome := range outcomes {
		wantID := fmt.Sprintf("u%d", i+1)
		if outcome.UserID != wantID {
			t.Errorf("outcome %d: user %s, want %s (input order lost)", i, outcome.UserID, wantID)
		}
	}
	if outcomes[2].Status != BulkFailed || outcomes[2].ErrorKind != "unknown_user" {
		t.Errorf("inactive user outcome = %+v, want failed/unknown_user", outcomes[2])
	}
	for _, i := range []int{0, 1, 3, 4} {
		if outcomes[i].Status != BulkSuccess {
			t.Errorf("outcome %d = %+v, want success", i, outcomes[i])
		}
		if !repo.snapshot(outcomes[i].UserID).Granted("vendors", "can_view") {
			t.Errorf("user %s reported success but grant not committed", outcomes[i].UserID)
		}
	}
	if stored := repo.snapshot("u3"); len(stored) != 0 {
		t.Errorf("inactive user has stored grants: %v", stored)
	}
}

func TestBulkUpdate_StructuralValidationAbortsWholeCall(t *testing.T) {
	svc, repo := newUpdateFixture(t, activeUser("u1"))
	ctx := context.Background()

	if _, err := svc.BulkUpdate(ctx, "admin", BulkInput{Delta: domain.GrantSet{"vendors": {"can_view": true}}}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("empty user list: error = %v, want ErrMalformedRequest", err)
	}
	if _, err := svc.BulkUpdate(ctx, "admin", BulkInput{UserIDs: []string{"u1"}}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("no delta or role: error = %v, want ErrMalformedRequest", err)
	}
	if _, err := svc.BulkUpdate(ctx, "admin", BulkInput{
		UserIDs: []string{"u1"},
		Delta:   domain.GrantSet{"rockets": {"can_launch": true}},
	}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("invalid field: error = %v, want ErrInvalidField", err)
	}
	if _, err := svc.BulkUpdate(ctx, "admin", BulkInput{
		UserIDs: []string{"u1"},
		Role:    "warlock",
	}); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("unknown role: error = %v, want ErrUnknownRole", err)
	}
	if repo.setCalls != 0 {
		t.Errorf("per-user dispatch ran despite structural errors (%d writes)", repo.setCalls)
	}
}

func TestBulkUpdate_RoleApplication(t *testing.T) {
	svc, repo := newUpdateFixture(t, activeUser("u1"), activeUser("u2"))

	outcomes, err := svc.BulkUpdate(context.Background(), "admin", BulkInput{
		UserIDs: []string{"u1", "u2"},
		Role:    "auditor",
	})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}

	for _, outcome := range outcomes {
		if outcome.Status != BulkSuccess {
			t.Fatalf("outcome %+v, want success", outcome)
		}
	}
	for _, id := range []string{"u1", "u2"} {
		if !repo.snapshot(id).Granted("vendors", "can_view") {
			t.Errorf("user %s missing templated grant", id)
		}
	}
}

func TestBulkUpdate_TimeoutReportsUnattemptedUsers(t *testing.T) {
	svc, repo := newUpdateFixture(t,
		activeUser("u1"), activeUser("u2"), activeUser("u3"), activeUser("u4"))
	repo.setDelay = 50 * time.Millisecond
	svc.WithConcurrency(1)

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	outcomes, err := svc.BulkUpdate(ctx, "admin", BulkInput{
		UserIDs: []string{"u1", "u2", "u3", "u4"},
		Delta:   domain.GrantSet{"vendors": {"can_view": true}},
	})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}

	if len(outcomes) != 4 {
		t.Fatalf("len(outcomes) = %d, want 4", len(outcomes))
	}
	if outcomes[0].Status != BulkSuccess {
		t.Errorf("first user = %+v, want success", outcomes[0])
	}

	var timedOut int
	for _, outcome := range outcomes {
		if outcome.Status == BulkTimeout {
			timedOut++
			if outcome.ErrorKind != "timeout" {
				t.Errorf("timeout outcome missing kind: %+v", outcome)
			}
		}
	}
	if timedOut == 0 {
		t.Error("expected at least one timeout outcome")
	}

	// Committed users stand even though the batch ran out of budget.
	if !repo.snapshot("u1").Granted("vendors", "can_view") {
		t.Error("committed write for u1 missing")
	}
}

func TestBulkUpdate_PublishesSummaryEvent(t *testing.T) {
	reg := testRegistry(t)
	repo := newGrantRepoMock()
	events := &eventPublisherMock{}
	grants := NewGrantService(repo, newUserRepoMock(activeUser("u1"), activeUser("u2")), reg, nil)
	templates := NewTemplateService(reg, grants, nil)
	svc := NewUpdateService(grants, templates, nil).WithEventPublisher(events)

	if _, err := svc.BulkUpdate(context.Background(), "admin", BulkInput{
		UserIDs: []string{"u1", "u2", "ghost"},
		Delta:   domain.GrantSet{"vendors": {"can_view": true}},
	}); err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}

	if len(events.bulksCompleted) != 1 {
		t.Fatalf("published %d summaries, want 1", len(events.bulksCompleted))
	}
	summary := events.bulksCompleted[0]
	if summary.TotalUsers != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
