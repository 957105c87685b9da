package model

import "time"

// ExchangeReservation links an Exchange Web Services calendar item to an
// internal reservation. The item id hash (md5 of the item id string) is
// the lookup key because raw EWS item ids are long and change-key
// agnostic.
//
// Fields:
//
//	ItemIDHash    – md5 hex digest of the EWS item id.
//	ItemID        – full EWS item id string.
//	ChangeKey     – EWS change key of the last synced revision.
//	ReservationID – internal reservation the item maps to.
//	ResourceID    – resource the calendar belongs to.
type ExchangeReservation struct {
	ItemIDHash    string
	ItemID        string
	ChangeKey     string
	ReservationID uint64
	ResourceID    uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
