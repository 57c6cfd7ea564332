package model

import (
	"time"

	"gorm.io/datatypes"
)

const TableNameActionQueue = "action_queues"

// ActionQueue mapped from table <action_queues>
type ActionQueue struct {
	ID           int64          `gorm:"column:id;type:bigint;primaryKey;autoIncrement:true" json:"id"`
	PlayerID     string         `gorm:"column:player_id;type:text;not null" json:"player_id"`
	ActionType   string         `gorm:"column:action_type;type:text;not null" json:"action_type"`
	ActionParams datatypes.JSON `gorm:"column:action_params;type:jsonb;not null" json:"action_params"`
	Total        int32          `gorm:"column:total;type:integer;not null" json:"total"`
	Completed    int32          `gorm:"column:completed;type:integer;not null" json:"completed"`
	StartedAt    time.Time      `gorm:"column:started_at;type:timestamp with time zone;not null" json:"started_at"`
	NextDueAt    time.Time      `gorm:"column:next_due_at;type:timestamp with time zone;not null" json:"next_due_at"`
	Status       string         `gorm:"column:status;type:text;not null" json:"status"`
	StopReason   string         `gorm:"column:stop_reason;type:text;not null" json:"stop_reason"`
	Results      datatypes.JSON `gorm:"column:results;type:jsonb;not null" json:"results"`
	Version      int64          `gorm:"column:version;type:bigint;not null" json:"version"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;type:timestamp with time zone;not null;default:now()" json:"updated_at"`
}

// TableName ActionQueue's table name
func (*ActionQueue) TableName() string {
	return TableNameActionQueue
}
