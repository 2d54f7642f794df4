package model

import "time"

// BanInfo describes an active ban on an account.
type BanInfo struct {
	Reason    string    `json:"reason"`
	BannedBy  int64     `json:"banned_by"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"` // zero = permanent
}

// Permanent returns true if the ban has no expiry.
func (b *BanInfo) Permanent() bool {
	return b.ExpiresAt.IsZero()
}
