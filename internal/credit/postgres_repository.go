package credit

import (
	"context"
	"database/sql"
	"time"

	"github.com/apidoorman/doorman-go/internal/configstore"
	"github.com/apidoorman/doorman-go/internal/dbpool"
)

// PostgresRepository is the config_store.backend=EXTERNAL credit repository,
// sharing a *sql.DB via internal/dbpool.SharedPool the way the teacher shared
// one Postgres pool across its payment repositories.
type PostgresRepository struct {
	pool *dbpool.SharedPool
}

// NewPostgresRepository wraps an existing shared pool.
func NewPostgresRepository(pool *dbpool.SharedPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetBalance reads a user's balance row, creating it on first use.
func (r *PostgresRepository) GetBalance(ctx context.Context, userID, creditGroup string) (configstore.UserCredits, error) {
	db := r.pool.DB()
	var bal configstore.UserCredits
	err := db.QueryRowContext(ctx,
		`SELECT user_id, credit_group, remaining, period_reset_at FROM user_credits WHERE user_id = $1 AND credit_group = $2`,
		userID, creditGroup,
	).Scan(&bal.UserID, &bal.CreditGroup, &bal.Remaining, &bal.PeriodResetAt)
	if err == sql.ErrNoRows {
		var def configstore.CreditDefinition
		if err := db.QueryRowContext(ctx,
			`SELECT credits_per_period, period_seconds FROM credit_definitions WHERE credit_group = $1`,
			creditGroup,
		).Scan(&def.CreditsPerPeriod, &def.PeriodSeconds); err != nil {
			return configstore.UserCredits{}, err
		}
		bal = configstore.UserCredits{
			UserID:        userID,
			CreditGroup:   creditGroup,
			Remaining:     def.CreditsPerPeriod,
			PeriodResetAt: time.Now().Add(time.Duration(def.PeriodSeconds) * time.Second),
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO user_credits (user_id, credit_group, remaining, period_reset_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, credit_group) DO NOTHING`,
			bal.UserID, bal.CreditGroup, bal.Remaining, bal.PeriodResetAt,
		)
		return bal, err
	}
	if err != nil {
		return configstore.UserCredits{}, err
	}
	return bal, nil
}

// Deduct atomically subtracts amount from a user's balance, failing the
// update (and thus the request) if it would go negative.
func (r *PostgresRepository) Deduct(ctx context.Context, userID, creditGroup string, amount int64) error {
	res, err := r.pool.DB().ExecContext(ctx,
		`UPDATE user_credits SET remaining = remaining - $1
		 WHERE user_id = $2 AND credit_group = $3 AND remaining >= $1`,
		amount, userID, creditGroup,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// RotateAPIKey begins a key rotation for a credit group: the new key becomes
// active for new calls immediately, while the old key remains valid until
// expiresAt so in-flight upstream sessions aren't disrupted.
func RotateAPIKey(ctx context.Context, pool *dbpool.SharedPool, creditGroup, newKey string, expiresAt time.Time) error {
	_, err := pool.DB().ExecContext(ctx,
		`UPDATE credit_definitions SET api_key_new = $1, api_key_rotation_expires = $2 WHERE credit_group = $3`,
		newKey, expiresAt, creditGroup,
	)
	return err
}

// FinalizeRotation promotes api_key_new to api_key once its rotation window
// has elapsed, grounded on the same "swap after expiry" idiom as the
// revocation ledger's sweep.
func FinalizeRotation(ctx context.Context, pool *dbpool.SharedPool, creditGroup string) error {
	_, err := pool.DB().ExecContext(ctx,
		`UPDATE credit_definitions
		 SET api_key = api_key_new, api_key_new = '', api_key_rotation_expires = NULL
		 WHERE credit_group = $1 AND api_key_rotation_expires IS NOT NULL AND api_key_rotation_expires < now()`,
		creditGroup,
	)
	return err
}

// MaskAPIKey returns a redacted form of an API key suitable for admin list
// views: first 4 and last 4 characters visible, the rest replaced.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
