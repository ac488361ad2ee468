// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/stakehall/matchengine/escrow"
	"github.com/stakehall/matchengine/models"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrInsufficientFunds aborts match formation: no partial locks.
	ErrInsufficientFunds = errors.New("insufficient spendable balance")
	// ErrHouseFunds means the house account cannot cover its automated
	// seats' stake contribution.
	ErrHouseFunds = errors.New("house balance too low")
)

// Store is the persistent contract of the match engine. Two
// implementations exist: GormStore (gorm + postgres driver) and PQStore
// (raw SQL over lib/pq). Both satisfy escrow.Ledger: Lock and Settle run
// inside database transactions, and Settle's idempotency is the persisted
// match status, never an in-memory flag.
type Store interface {
	escrow.Ledger

	EnsureAccount(accountID int64, name string, opening int64) error
	SpendableBalance(accountID int64) (int64, error)
	LockedBalance(accountID int64) (int64, error)
	HouseBalance() (int64, error)

	// CreateMatch persists a forming match with its seat rows.
	CreateMatch(m *models.Match) error
	GetMatch(matchID string) (*models.Match, error)
	// MatchesInProgress feeds the recovery coordinator; seats are
	// populated.
	MatchesInProgress() ([]*models.Match, error)

	Close() error
}
