package domain

import "time"

// Account represents a registered user of the system.
//
// Email is compared byte-for-byte (case-sensitive) everywhere: two
// registrations differing only in case are distinct accounts.
type Account struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Bio          *string
	DOB          *time.Time
	CreatedAt    time.Time
}
