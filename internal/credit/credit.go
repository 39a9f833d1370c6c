// Package credit enforces per-user credit consumption against a credit
// group's shared allowance, and manages the rotating upstream API key each
// credit group holds. Grounded on the teacher's idea of a balance check gate
// (CedrosPay's wallet balance checks) generalized from SOL balances to
// integer credit counts, with a memory repository for config_store.backend=MEM
// and a Postgres repository (via internal/dbpool) for EXTERNAL.
package credit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
)

// ErrInsufficientCredits is returned when a user has no remaining balance in
// the requested credit group.
var ErrInsufficientCredits = errors.New("credit: insufficient credits remaining")

// Repository persists and mutates per-user credit balances.
type Repository interface {
	GetBalance(ctx context.Context, userID, creditGroup string) (configstore.UserCredits, error)
	Deduct(ctx context.Context, userID, creditGroup string, amount int64) error
}

// Service evaluates and applies credit deductions ahead of dispatching a
// request to an upstream backend.
type Service struct {
	repo Repository
}

// NewService constructs a credit service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authorize checks that userID has at least amount credits remaining in
// creditGroup and, if so, deducts them immediately (spec's Open Question:
// refund-on-failure defaults to off, see DESIGN.md).
func (s *Service) Authorize(ctx context.Context, userID, creditGroup string, amount int64) error {
	if creditGroup == "" {
		return nil // endpoint is not credit-gated
	}
	balance, err := s.repo.GetBalance(ctx, userID, creditGroup)
	if err != nil {
		return err
	}
	if balance.Remaining < amount {
		return ErrInsufficientCredits
	}
	return s.repo.Deduct(ctx, userID, creditGroup, amount)
}

// MemoryRepository is the config_store.backend=MEM credit repository: a flat
// map guarded by a mutex, mirroring the rest of the MEM-backend packages.
type MemoryRepository struct {
	mu       sync.Mutex
	balances map[string]*configstore.UserCredits
	defs     map[string]configstore.CreditDefinition
}

// NewMemoryRepository creates an empty repository. defs supplies each credit
// group's period length/allowance so a first-seen user gets seeded correctly.
func NewMemoryRepository(defs map[string]configstore.CreditDefinition) *MemoryRepository {
	return &MemoryRepository{
		balances: make(map[string]*configstore.UserCredits),
		defs:     defs,
	}
}

func balanceKey(userID, creditGroup string) string { return userID + ":" + creditGroup }

// tierFor resolves the (credits, period) pair a balance resets to: the named
// tier within def.Tiers when the user has one assigned and it exists, else
// def's own flat CreditsPerPeriod/PeriodSeconds (a credit group with no
// tiers configured at all).
func tierFor(def configstore.CreditDefinition, tierName string) (credits, periodSeconds int64) {
	if tierName != "" {
		for _, t := range def.Tiers {
			if t.TierName == tierName {
				return t.Credits, t.PeriodSeconds
			}
		}
	}
	return def.CreditsPerPeriod, def.PeriodSeconds
}

// GetBalance returns userID's current balance, lazily seeding it from the
// credit group's definition (honoring the user's assigned tier, if any) and
// resetting it if the period has rolled over.
func (r *MemoryRepository) GetBalance(ctx context.Context, userID, creditGroup string) (configstore.UserCredits, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := balanceKey(userID, creditGroup)
	bal, ok := r.balances[key]
	def := r.defs[creditGroup]
	now := time.Now()

	if !ok {
		credits, periodSeconds := tierFor(def, "")
		bal = &configstore.UserCredits{
			UserID:        userID,
			CreditGroup:   creditGroup,
			Remaining:     credits,
			PeriodResetAt: now.Add(time.Duration(periodSeconds) * time.Second),
		}
		r.balances[key] = bal
	} else if now.After(bal.PeriodResetAt) {
		credits, periodSeconds := tierFor(def, bal.TierName)
		bal.Remaining = credits
		bal.PeriodResetAt = now.Add(time.Duration(periodSeconds) * time.Second)
	}
	return *bal, nil
}

// Deduct subtracts amount from userID's balance in creditGroup.
func (r *MemoryRepository) Deduct(ctx context.Context, userID, creditGroup string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey(userID, creditGroup)
	bal, ok := r.balances[key]
	if !ok {
		return ErrInsufficientCredits
	}
	if bal.Remaining < amount {
		return ErrInsufficientCredits
	}
	bal.Remaining -= amount
	return nil
}
