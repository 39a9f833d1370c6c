package credit

import (
	"context"
	"testing"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
)

func TestMemoryRepository_SeedsAndDeducts(t *testing.T) {
	repo := NewMemoryRepository(map[string]configstore.CreditDefinition{
		"standard": {CreditsPerPeriod: 10, PeriodSeconds: 3600},
	})
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "user-1", "standard", 3); err != nil {
		t.Fatalf("expected authorize to succeed, got %v", err)
	}
	bal, _ := repo.GetBalance(ctx, "user-1", "standard")
	if bal.Remaining != 7 {
		t.Errorf("expected 7 remaining, got %d", bal.Remaining)
	}
}

func TestMemoryRepository_RejectsWhenExhausted(t *testing.T) {
	repo := NewMemoryRepository(map[string]configstore.CreditDefinition{
		"standard": {CreditsPerPeriod: 2, PeriodSeconds: 3600},
	})
	svc := NewService(repo)
	ctx := context.Background()

	svc.Authorize(ctx, "user-1", "standard", 2)
	if err := svc.Authorize(ctx, "user-1", "standard", 1); err != ErrInsufficientCredits {
		t.Errorf("expected ErrInsufficientCredits, got %v", err)
	}
}

func TestMemoryRepository_ResetsAfterPeriod(t *testing.T) {
	repo := NewMemoryRepository(map[string]configstore.CreditDefinition{
		"standard": {CreditsPerPeriod: 1, PeriodSeconds: 0},
	})
	ctx := context.Background()
	repo.Deduct(ctx, "user-1", "standard", 0)
	bal, _ := repo.GetBalance(ctx, "user-1", "standard")
	bal.PeriodResetAt = time.Now().Add(-time.Second)
	repo.balances[balanceKey("user-1", "standard")] = &bal

	refreshed, _ := repo.GetBalance(ctx, "user-1", "standard")
	if refreshed.Remaining != 1 {
		t.Errorf("expected balance reset to 1, got %d", refreshed.Remaining)
	}
}

func TestMemoryRepository_ResetsToAssignedTier(t *testing.T) {
	repo := NewMemoryRepository(map[string]configstore.CreditDefinition{
		"standard": {
			CreditsPerPeriod: 1,
			PeriodSeconds:    0,
			Tiers: []configstore.Tier{
				{TierName: "gold", Credits: 100, PeriodSeconds: 3600},
			},
		},
	})
	ctx := context.Background()
	repo.Deduct(ctx, "user-1", "standard", 0)
	bal, _ := repo.GetBalance(ctx, "user-1", "standard")
	bal.TierName = "gold"
	bal.PeriodResetAt = time.Now().Add(-time.Second)
	repo.balances[balanceKey("user-1", "standard")] = &bal

	refreshed, _ := repo.GetBalance(ctx, "user-1", "standard")
	if refreshed.Remaining != 100 {
		t.Errorf("expected gold tier to reset balance to 100, got %d", refreshed.Remaining)
	}
}

func TestAuthorize_SkipsUngatedEndpoint(t *testing.T) {
	repo := NewMemoryRepository(nil)
	svc := NewService(repo)
	if err := svc.Authorize(context.Background(), "user-1", "", 5); err != nil {
		t.Errorf("expected no error for ungated endpoint, got %v", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey("sk-abcdefghijklmnop"); got != "sk-a...mnop" {
		t.Errorf("unexpected mask: %s", got)
	}
	if got := MaskAPIKey("short"); got != "****" {
		t.Errorf("expected full mask for short key, got %s", got)
	}
}
