package db

import (
	"time"

	"gorm.io/datatypes"
)

// RoundResult is the permanent record of a resolved round. Round ids may
// be reused after resolution, so re-resolving under the same id replaces
// the row rather than adding a second one.
type RoundResult struct {
	ID              uint      `gorm:"primaryKey"`
	RoundID         string    `gorm:"size:64;uniqueIndex;not null"`
	Winner          string    `gorm:"size:64;not null"`
	RunnerUp        string    `gorm:"size:64;not null"`
	WinnerCaption   string    `gorm:"size:280;not null"`
	RunnerUpCaption string    `gorm:"size:280;not null"`
	SoloScore       int       `gorm:"not null;default:0"`
	ResolvedAt      int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// PlayerXP rows are created in first-award order; the autoincrement id
// preserves leaderboard enumeration order across restarts.
type PlayerXP struct {
	ID        uint      `gorm:"primaryKey"`
	Address   string    `gorm:"size:64;uniqueIndex;not null"`
	XP        int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Nickname struct {
	ID        uint      `gorm:"primaryKey"`
	Address   string    `gorm:"size:64;uniqueIndex;not null"`
	Name      string    `gorm:"size:20;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RoundEvent struct {
	ID        uint           `gorm:"primaryKey"`
	EventID   string         `gorm:"size:36;uniqueIndex;not null"`
	RoundID   string         `gorm:"size:64;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
