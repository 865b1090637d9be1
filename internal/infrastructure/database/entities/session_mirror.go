package entities

import "time"

// SessionMirror is the server-side record of a collaborative session. The
// session document itself lives in the key-value store; this row only
// mirrors creation for ownership lookups.
type SessionMirror struct {
	SessionID string    `gorm:"type:varchar(64);primaryKey"`
	OwnerID   string    `gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SessionMirror) TableName() string {
	return "session_mirrors"
}
