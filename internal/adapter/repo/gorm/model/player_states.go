package model

import (
	"time"

	"gorm.io/datatypes"
)

const TableNamePlayerState = "player_states"

// PlayerState mapped from table <player_states>
type PlayerState struct {
	PlayerID     string         `gorm:"column:player_id;type:text;primaryKey" json:"player_id"`
	Energy       int32          `gorm:"column:energy;type:integer;not null" json:"energy"`
	MaxEnergy    int32          `gorm:"column:max_energy;type:integer;not null" json:"max_energy"`
	Gold         int64          `gorm:"column:gold;type:bigint;not null" json:"gold"`
	Inventory    datatypes.JSON `gorm:"column:inventory;type:jsonb;not null" json:"inventory"`
	Skills       datatypes.JSON `gorm:"column:skills;type:jsonb;not null" json:"skills"`
	LocationType string         `gorm:"column:location_type;type:text;not null" json:"location_type"`
	LocationID   int64          `gorm:"column:location_id;type:bigint;not null" json:"location_id"`
	LockedUntil  *time.Time     `gorm:"column:locked_until;type:timestamp with time zone" json:"locked_until"`
	Version      int64          `gorm:"column:version;type:bigint;not null" json:"version"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;type:timestamp with time zone;not null;default:now()" json:"updated_at"`
}

// TableName PlayerState's table name
func (*PlayerState) TableName() string {
	return TableNamePlayerState
}
