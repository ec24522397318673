package schema

import "time"

// KVEntry is one key of a namespaced key-value store
// Rows with an expires_at in the past are treated as absent
type KVEntry struct {
	Namespace string     `gorm:"primaryKey;type:text"`
	Key       string     `gorm:"primaryKey;type:text"`
	Value     string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"type:timestamptz"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
