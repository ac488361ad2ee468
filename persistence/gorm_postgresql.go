// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stakehall/matchengine/escrow"
	"github.com/stakehall/matchengine/models"
)

// GormStore is the primary Store implementation.
type GormStore struct {
	db        *gorm.DB
	feeRateBP int64
}

func NewGormStore(host string, port int, user, password, dbname string, feeRateBP int64) (*GormStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gl := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Match{},
		&models.MatchSeat{},
		&models.LedgerEntry{},
	); err != nil {
		return nil, err
	}

	s := &GormStore{db: db, feeRateBP: feeRateBP}
	if err := s.EnsureAccount(models.HouseAccountID, "house", 0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GormStore) EnsureAccount(accountID int64, name string, opening int64) error {
	var acct models.Account
	err := s.db.Where("account_id = ?", accountID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = models.Account{AccountID: accountID, Name: name, Spendable: opening}
		return s.db.Create(&acct).Error
	}
	return err
}

func (s *GormStore) balances(accountID int64) (*models.Account, error) {
	var acct models.Account
	if err := s.db.Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (s *GormStore) SpendableBalance(accountID int64) (int64, error) {
	acct, err := s.balances(accountID)
	if err != nil {
		return 0, err
	}
	return acct.Spendable, nil
}

func (s *GormStore) LockedBalance(accountID int64) (int64, error) {
	acct, err := s.balances(accountID)
	if err != nil {
		return 0, err
	}
	return acct.Locked, nil
}

func (s *GormStore) HouseBalance() (int64, error) {
	return s.SpendableBalance(models.HouseAccountID)
}

func (s *GormStore) CreateMatch(m *models.Match) error {
	if m.Status == "" {
		m.Status = models.MatchForming
	}
	return s.db.Create(m).Error
}

func (s *GormStore) GetMatch(matchID string) (*models.Match, error) {
	var m models.Match
	err := s.db.Preload("Seats").Where("match_id = ?", matchID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) MatchesInProgress() ([]*models.Match, error) {
	var matches []*models.Match
	err := s.db.Preload("Seats").Where("status = ?", models.MatchInProgress).Find(&matches).Error
	return matches, err
}

// lockAccount loads an account row FOR UPDATE inside tx.
func lockAccount(tx *gorm.DB, accountID int64) (*models.Account, error) {
	var acct models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Lock moves each seat's stake from spendable to locked in one
// transaction; the whole operation fails if any human seat cannot cover
// its stake. House seats debit the house balance directly.
func (s *GormStore) Lock(matchID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("match_id = ?", matchID).First(&match).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		if match.Status != models.MatchForming {
			return nil // already locked (or settled): no-op
		}
		if match.Stake == 0 {
			return tx.Model(&match).Update("status", models.MatchInProgress).Error
		}

		var seats []models.MatchSeat
		if err := tx.Where("match_id = ?", matchID).Order("seat_index").Find(&seats).Error; err != nil {
			return err
		}
		for _, seat := range seats {
			if seat.House {
				house, err := lockAccount(tx, models.HouseAccountID)
				if err != nil {
					return err
				}
				if house.Spendable < match.Stake {
					return fmt.Errorf("%w: need %d for seat %d", ErrHouseFunds, match.Stake, seat.SeatIndex)
				}
				house.Spendable -= match.Stake
				if err := tx.Save(house).Error; err != nil {
					return err
				}
				if err := tx.Create(&models.LedgerEntry{
					MatchID:   matchID,
					AccountID: models.HouseAccountID,
					Kind:      models.EntryHouseDebit,
					Amount:    match.Stake,
					Status:    models.EntryPending,
				}).Error; err != nil {
					return err
				}
				continue
			}

			acct, err := lockAccount(tx, seat.AccountID)
			if err != nil {
				return err
			}
			if acct.Spendable < match.Stake {
				return fmt.Errorf("%w: account %d needs %d", ErrInsufficientFunds, seat.AccountID, match.Stake)
			}
			acct.Spendable -= match.Stake
			acct.Locked += match.Stake
			if err := tx.Save(acct).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.LedgerEntry{
				MatchID:   matchID,
				AccountID: seat.AccountID,
				Kind:      models.EntryDebitLock,
				Amount:    match.Stake,
				Status:    models.EntryPending,
			}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&match).Update("status", models.MatchInProgress).Error
	})
}

// Settle distributes the pot exactly once, guarded by the persisted match
// status. Everything happens in one transaction: unlock human stakes,
// complete pending debit records, credit winners (or the house for
// house-controlled winners), credit the fee to the house, mark finished.
func (s *GormStore) Settle(matchID string, winningSeats []int) (*escrow.Settlement, error) {
	var result *escrow.Settlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("match_id = ?", matchID).First(&match).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		if match.Status == models.MatchFinished {
			result = &escrow.Settlement{AlreadySettled: true}
			return nil
		}

		total := match.Stake * int64(match.SeatCount)
		pot, fee := escrow.Pot(total, s.feeRateBP)
		payouts := escrow.SplitEven(pot, winningSeats)

		winner := make(map[int]bool, len(winningSeats))
		for _, w := range winningSeats {
			winner[w] = true
		}

		var seats []models.MatchSeat
		if err := tx.Where("match_id = ?", matchID).Order("seat_index").Find(&seats).Error; err != nil {
			return err
		}
		for i := range seats {
			seat := &seats[i]

			if match.Stake > 0 && !seat.House {
				acct, err := lockAccount(tx, seat.AccountID)
				if err != nil {
					return err
				}
				acct.Locked -= match.Stake
				if err := tx.Save(acct).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.LedgerEntry{}).
					Where("match_id = ? AND account_id = ? AND kind = ? AND status = ?",
						matchID, seat.AccountID, models.EntryDebitLock, models.EntryPending).
					Update("status", models.EntryCompleted).Error; err != nil {
					return err
				}
			}

			if !winner[seat.SeatIndex] {
				continue
			}
			seat.Won = true
			if err := tx.Save(seat).Error; err != nil {
				return err
			}

			payout := payouts[seat.SeatIndex]
			if seat.House {
				if payout > 0 {
					house, err := lockAccount(tx, models.HouseAccountID)
					if err != nil {
						return err
					}
					house.Spendable += payout
					if err := tx.Save(house).Error; err != nil {
						return err
					}
					if err := tx.Create(&models.LedgerEntry{
						MatchID:   matchID,
						AccountID: models.HouseAccountID,
						Kind:      models.EntryHouseCredit,
						Amount:    payout,
						Status:    models.EntryCompleted,
					}).Error; err != nil {
						return err
					}
				}
				continue
			}

			acct, err := lockAccount(tx, seat.AccountID)
			if err != nil {
				return err
			}
			acct.Spendable += payout
			acct.Wins++
			if err := tx.Save(acct).Error; err != nil {
				return err
			}
			if payout > 0 {
				if err := tx.Create(&models.LedgerEntry{
					MatchID:   matchID,
					AccountID: seat.AccountID,
					Kind:      models.EntryCreditWin,
					Amount:    payout,
					Status:    models.EntryCompleted,
				}).Error; err != nil {
					return err
				}
			}
		}

		if fee > 0 {
			house, err := lockAccount(tx, models.HouseAccountID)
			if err != nil {
				return err
			}
			house.Spendable += fee
			if err := tx.Save(house).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.LedgerEntry{
				MatchID:   matchID,
				AccountID: models.HouseAccountID,
				Kind:      models.EntryHouseFee,
				Amount:    fee,
				Status:    models.EntryCompleted,
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&match).Update("status", models.MatchFinished).Error; err != nil {
			return err
		}
		result = &escrow.Settlement{TotalStake: total, Fee: fee, Pot: pot, Payouts: payouts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
