package model

import "time"

// APIKey is one saved GW2 account API key. Selected keys are the ones a
// load without an explicit key list picks up.
type APIKey struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Label     string    `gorm:"size:64" json:"label"`
	Key       string    `gorm:"uniqueIndex;size:80;not null" json:"key"`
	Selected  bool      `gorm:"default:true" json:"selected"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
