// persistence/postgresql.go
//
// Raw-SQL Store over database/sql and lib/pq. Functionally equivalent to
// GormStore; kept for deployments that want the escrow transactions in
// plain SQL with explicit row locks.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/stakehall/matchengine/escrow"
	"github.com/stakehall/matchengine/models"
)

type PQStore struct {
	db        *sql.DB
	feeRateBP int64
}

func NewPQStore(host string, port int, user, password, dbname string, feeRateBP int64) (*PQStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	s := &PQStore{db: db, feeRateBP: feeRateBP}
	if err := s.EnsureAccount(models.HouseAccountID, "house", 0); err != nil {
		return nil, err
	}
	return s, nil
}

func initTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			account_id BIGINT UNIQUE NOT NULL,
			name VARCHAR(64) NOT NULL,
			spendable BIGINT NOT NULL DEFAULT 0,
			locked BIGINT NOT NULL DEFAULT 0,
			wins INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id SERIAL PRIMARY KEY,
			match_id VARCHAR(36) UNIQUE NOT NULL,
			variant VARCHAR(32) NOT NULL,
			stake BIGINT NOT NULL DEFAULT 0,
			seat_count INT NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
		`CREATE TABLE IF NOT EXISTS match_seats (
			id SERIAL PRIMARY KEY,
			match_id VARCHAR(36) NOT NULL,
			seat_index INT NOT NULL,
			account_id BIGINT NOT NULL,
			house BOOLEAN NOT NULL DEFAULT FALSE,
			won BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_seats_match ON match_seats(match_id)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id SERIAL PRIMARY KEY,
			match_id VARCHAR(36) NOT NULL,
			account_id BIGINT NOT NULL,
			kind VARCHAR(16) NOT NULL,
			amount BIGINT NOT NULL,
			status VARCHAR(12) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_match ON ledger_entries(match_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PQStore) EnsureAccount(accountID int64, name string, opening int64) error {
	_, err := s.db.Exec(
		`INSERT INTO accounts (account_id, name, spendable)
		 VALUES ($1, $2, $3) ON CONFLICT (account_id) DO NOTHING`,
		accountID, name, opening)
	return err
}

func (s *PQStore) SpendableBalance(accountID int64) (int64, error) {
	var v int64
	err := s.db.QueryRow(`SELECT spendable FROM accounts WHERE account_id = $1`, accountID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRecordNotFound
	}
	return v, err
}

func (s *PQStore) LockedBalance(accountID int64) (int64, error) {
	var v int64
	err := s.db.QueryRow(`SELECT locked FROM accounts WHERE account_id = $1`, accountID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRecordNotFound
	}
	return v, err
}

func (s *PQStore) HouseBalance() (int64, error) {
	return s.SpendableBalance(models.HouseAccountID)
}

func (s *PQStore) CreateMatch(m *models.Match) error {
	if m.Status == "" {
		m.Status = models.MatchForming
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO matches (match_id, variant, stake, seat_count, status) VALUES ($1, $2, $3, $4, $5)`,
		m.MatchID, m.Variant, m.Stake, m.SeatCount, m.Status); err != nil {
		return err
	}
	for _, seat := range m.Seats {
		if _, err := tx.Exec(
			`INSERT INTO match_seats (match_id, seat_index, account_id, house) VALUES ($1, $2, $3, $4)`,
			m.MatchID, seat.SeatIndex, seat.AccountID, seat.House); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PQStore) GetMatch(matchID string) (*models.Match, error) {
	m := &models.Match{}
	err := s.db.QueryRow(
		`SELECT match_id, variant, stake, seat_count, status FROM matches WHERE match_id = $1`,
		matchID).Scan(&m.MatchID, &m.Variant, &m.Stake, &m.SeatCount, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Seats, err = s.matchSeats(matchID)
	return m, err
}

func (s *PQStore) matchSeats(matchID string) ([]models.MatchSeat, error) {
	rows, err := s.db.Query(
		`SELECT seat_index, account_id, house, won FROM match_seats WHERE match_id = $1 ORDER BY seat_index`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.MatchSeat
	for rows.Next() {
		seat := models.MatchSeat{MatchID: matchID}
		if err := rows.Scan(&seat.SeatIndex, &seat.AccountID, &seat.House, &seat.Won); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (s *PQStore) MatchesInProgress() ([]*models.Match, error) {
	rows, err := s.db.Query(
		`SELECT match_id, variant, stake, seat_count, status FROM matches WHERE status = $1`,
		models.MatchInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m := &models.Match{}
		if err := rows.Scan(&m.MatchID, &m.Variant, &m.Stake, &m.SeatCount, &m.Status); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Seats, err = s.matchSeats(m.MatchID); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *PQStore) Lock(matchID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stake int64
	var status string
	err = tx.QueryRow(`SELECT stake, status FROM matches WHERE match_id = $1 FOR UPDATE`, matchID).
		Scan(&stake, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	if status != models.MatchForming {
		return tx.Commit() // already locked or settled
	}

	if stake > 0 {
		rows, err := tx.Query(
			`SELECT seat_index, account_id, house FROM match_seats WHERE match_id = $1 ORDER BY seat_index`,
			matchID)
		if err != nil {
			return err
		}
		type seatRow struct {
			index   int
			account int64
			house   bool
		}
		var seats []seatRow
		for rows.Next() {
			var r seatRow
			if err := rows.Scan(&r.index, &r.account, &r.house); err != nil {
				rows.Close()
				return err
			}
			seats = append(seats, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, seat := range seats {
			if seat.house {
				var houseBal int64
				if err := tx.QueryRow(
					`SELECT spendable FROM accounts WHERE account_id = $1 FOR UPDATE`,
					models.HouseAccountID).Scan(&houseBal); err != nil {
					return err
				}
				if houseBal < stake {
					return fmt.Errorf("%w: need %d for seat %d", ErrHouseFunds, stake, seat.index)
				}
				if _, err := tx.Exec(
					`UPDATE accounts SET spendable = spendable - $1, updated_at = NOW() WHERE account_id = $2`,
					stake, models.HouseAccountID); err != nil {
					return err
				}
				if err := insertEntry(tx, matchID, models.HouseAccountID, models.EntryHouseDebit, stake, models.EntryPending); err != nil {
					return err
				}
				continue
			}

			var spendable int64
			err := tx.QueryRow(
				`SELECT spendable FROM accounts WHERE account_id = $1 FOR UPDATE`,
				seat.account).Scan(&spendable)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRecordNotFound
			}
			if err != nil {
				return err
			}
			if spendable < stake {
				return fmt.Errorf("%w: account %d needs %d", ErrInsufficientFunds, seat.account, stake)
			}
			if _, err := tx.Exec(
				`UPDATE accounts SET spendable = spendable - $1, locked = locked + $1, updated_at = NOW()
				 WHERE account_id = $2`, stake, seat.account); err != nil {
				return err
			}
			if err := insertEntry(tx, matchID, seat.account, models.EntryDebitLock, stake, models.EntryPending); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(
		`UPDATE matches SET status = $1, updated_at = NOW() WHERE match_id = $2`,
		models.MatchInProgress, matchID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PQStore) Settle(matchID string, winningSeats []int) (*escrow.Settlement, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var stake int64
	var seatCount int
	var status string
	err = tx.QueryRow(
		`SELECT stake, seat_count, status FROM matches WHERE match_id = $1 FOR UPDATE`,
		matchID).Scan(&stake, &seatCount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == models.MatchFinished {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &escrow.Settlement{AlreadySettled: true}, nil
	}

	total := stake * int64(seatCount)
	pot, fee := escrow.Pot(total, s.feeRateBP)
	payouts := escrow.SplitEven(pot, winningSeats)
	winner := make(map[int]bool, len(winningSeats))
	for _, w := range winningSeats {
		winner[w] = true
	}

	seats, err := s.matchSeatsTx(tx, matchID)
	if err != nil {
		return nil, err
	}
	for _, seat := range seats {
		if stake > 0 && !seat.House {
			if _, err := tx.Exec(
				`UPDATE accounts SET locked = locked - $1, updated_at = NOW() WHERE account_id = $2`,
				stake, seat.AccountID); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(
				`UPDATE ledger_entries SET status = $1 WHERE match_id = $2 AND account_id = $3 AND kind = $4 AND status = $5`,
				models.EntryCompleted, matchID, seat.AccountID, models.EntryDebitLock, models.EntryPending); err != nil {
				return nil, err
			}
		}
		if !winner[seat.SeatIndex] {
			continue
		}
		if _, err := tx.Exec(
			`UPDATE match_seats SET won = TRUE WHERE match_id = $1 AND seat_index = $2`,
			matchID, seat.SeatIndex); err != nil {
			return nil, err
		}
		payout := payouts[seat.SeatIndex]
		if seat.House {
			if payout > 0 {
				if _, err := tx.Exec(
					`UPDATE accounts SET spendable = spendable + $1, updated_at = NOW() WHERE account_id = $2`,
					payout, models.HouseAccountID); err != nil {
					return nil, err
				}
				if err := insertEntry(tx, matchID, models.HouseAccountID, models.EntryHouseCredit, payout, models.EntryCompleted); err != nil {
					return nil, err
				}
			}
			continue
		}
		if _, err := tx.Exec(
			`UPDATE accounts SET spendable = spendable + $1, wins = wins + 1, updated_at = NOW()
			 WHERE account_id = $2`, payout, seat.AccountID); err != nil {
			return nil, err
		}
		if payout > 0 {
			if err := insertEntry(tx, matchID, seat.AccountID, models.EntryCreditWin, payout, models.EntryCompleted); err != nil {
				return nil, err
			}
		}
	}

	if fee > 0 {
		if _, err := tx.Exec(
			`UPDATE accounts SET spendable = spendable + $1, updated_at = NOW() WHERE account_id = $2`,
			fee, models.HouseAccountID); err != nil {
			return nil, err
		}
		if err := insertEntry(tx, matchID, models.HouseAccountID, models.EntryHouseFee, fee, models.EntryCompleted); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(
		`UPDATE matches SET status = $1, updated_at = NOW() WHERE match_id = $2`,
		models.MatchFinished, matchID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &escrow.Settlement{TotalStake: total, Fee: fee, Pot: pot, Payouts: payouts}, nil
}

func (s *PQStore) matchSeatsTx(tx *sql.Tx, matchID string) ([]models.MatchSeat, error) {
	rows, err := tx.Query(
		`SELECT seat_index, account_id, house FROM match_seats WHERE match_id = $1 ORDER BY seat_index`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.MatchSeat
	for rows.Next() {
		seat := models.MatchSeat{MatchID: matchID}
		if err := rows.Scan(&seat.SeatIndex, &seat.AccountID, &seat.House); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func insertEntry(tx *sql.Tx, matchID string, accountID int64, kind string, amount int64, status string) error {
	_, err := tx.Exec(
		`INSERT INTO ledger_entries (match_id, account_id, kind, amount, status) VALUES ($1, $2, $3, $4, $5)`,
		matchID, accountID, kind, amount, status)
	return err
}

func (s *PQStore) Close() error {
	return s.db.Close()
}
