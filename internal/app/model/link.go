package model

import "time"

// Column sizes of Link.Key and Link.SecretKey; keep in sync with the gorm tags.
const (
	KeyMaxLength       = 32
	SecretKeyMaxLength = 96
)

// MaxSecretSuffixLength is the longest random suffix that still fits a secret
// key built on a public key of KeyMaxLength ("<key>_<suffix>").
const MaxSecretSuffixLength = SecretKeyMaxLength - KeyMaxLength - 1

// Link maps a public key to a target URL. SecretKey is the bearer credential
// for the admin endpoints of this single link.
type Link struct {
	ID        uint      `db:"id" gorm:"primaryKey"`
	TargetURL string    `db:"target_url" gorm:"type:text;not null"`
	Key       string    `db:"short_key" gorm:"column:short_key;size:32;uniqueIndex;not null"`
	SecretKey string    `db:"secret_key" gorm:"size:96;uniqueIndex;not null"`
	IsActive  bool      `db:"is_active" gorm:"not null;default:true"`
	Clicks    int64     `db:"clicks" gorm:"not null;default:0"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}

// Status is the two-state lifecycle of a link.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "active"
	}
	return "inactive"
}

// StatusOf converts the stored flag into a Status.
func StatusOf(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// Status reports the link's current lifecycle state.
func (l *Link) Status() Status {
	return StatusOf(l.IsActive)
}
