package model

import (
	"time"

	"gorm.io/datatypes"
)

const TableNameDomainEvent = "domain_events"

// DomainEvent mapped from table <domain_events>
type DomainEvent struct {
	ID         int64          `gorm:"column:id;type:bigint;primaryKey;autoIncrement:true" json:"id"`
	PlayerID   string         `gorm:"column:player_id;type:text;not null" json:"player_id"`
	Type       string         `gorm:"column:type;type:text;not null" json:"type"`
	OccurredAt time.Time      `gorm:"column:occurred_at;type:timestamp with time zone;not null" json:"occurred_at"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamp with time zone;not null;default:now()" json:"created_at"`
}

// TableName DomainEvent's table name
func (*DomainEvent) TableName() string {
	return TableNameDomainEvent
}
