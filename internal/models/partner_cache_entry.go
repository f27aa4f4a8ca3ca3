package models

import "time"

// PartnerCacheEntry persists the last visible projection a partner
// installation received, one row per pairing key.
type PartnerCacheEntry struct {
	CacheKey  string `gorm:"primaryKey"`
	Version   int64  `gorm:"not null"`
	Payload   string `gorm:"not null"`
	CachedAt  time.Time
	UpdatedAt time.Time
}
