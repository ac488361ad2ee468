// models/models.go
package models

import (
	"gorm.io/gorm"
)

// Match status values. The status column is the settlement idempotency
// flag: only a finished match is safe to leave alone after a restart.
const (
	MatchForming    = "forming"
	MatchInProgress = "in_progress"
	MatchFinished   = "finished"
)

// HouseAccountID is the single system-owned account that funds and receives
// payouts for seats under persistent automated control in paid matches.
const HouseAccountID int64 = 1

// Ledger entry kinds.
const (
	EntryDebitLock   = "debit_lock"
	EntryCreditWin   = "credit_win"
	EntryHouseDebit  = "house_debit"
	EntryHouseCredit = "house_credit"
	EntryHouseFee    = "house_fee"
)

// Ledger entry statuses.
const (
	EntryPending   = "pending"
	EntryCompleted = "completed"
)

// Account carries a spendable and a locked balance in minor units. Locking
// a stake moves value between the two columns, never out of the row.
type Account struct {
	gorm.Model
	AccountID int64  `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"size:64;not null"`
	Spendable int64  `gorm:"not null;default:0"`
	Locked    int64  `gorm:"not null;default:0"`
	Wins      int    `gorm:"not null;default:0"`
}

// Match is the persisted match record; rooms are rebuilt from these rows
// after a restart.
type Match struct {
	gorm.Model
	MatchID   string      `gorm:"uniqueIndex;size:36;not null"`
	Variant   string      `gorm:"size:32;not null"`
	Stake     int64       `gorm:"not null;default:0"`
	SeatCount int         `gorm:"not null"`
	Status    string      `gorm:"size:16;index;not null"`
	Seats     []MatchSeat `gorm:"foreignKey:MatchID;references:MatchID"`
}

// MatchSeat links one seat of a match to its owning account.
type MatchSeat struct {
	gorm.Model
	MatchID   string `gorm:"index;size:36;not null"`
	SeatIndex int    `gorm:"not null"`
	AccountID int64  `gorm:"not null"`
	House     bool   `gorm:"not null;default:false"`
	Won       bool   `gorm:"not null;default:false"`
}

// LedgerEntry is an immutable audit record of one balance movement. Rows
// are only ever inserted or flipped from pending to completed.
type LedgerEntry struct {
	gorm.Model
	MatchID   string `gorm:"index;size:36;not null"`
	AccountID int64  `gorm:"index;not null"`
	Kind      string `gorm:"size:16;not null"`
	Amount    int64  `gorm:"not null"`
	Status    string `gorm:"size:12;not null"`
}
