package model

import "time"

// OutboxEvent is written in the same transaction as the aggregate it
// describes and drained by the dispatcher. The projection and the Kafka
// relay consume it independently, each with its own progress columns.
type OutboxEvent struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	EventID       string    `gorm:"size:36;not null;uniqueIndex"`
	AggregateID   string    `gorm:"size:36;not null;index"`
	Topic         string    `gorm:"size:64;not null"`
	Payload       string    `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time `gorm:"not null;index"`
	Processed     bool      `gorm:"not null;default:false;index"`
	ProcessedAt   *time.Time
	Retries       int `gorm:"not null;default:0"`
	LastAttemptAt *time.Time
	Error         *string `gorm:"type:text"`

	Relayed            bool `gorm:"not null;default:false;index"`
	RelayedAt          *time.Time
	RelayRetries       int `gorm:"not null;default:0"`
	RelayLastAttemptAt *time.Time
	RelayError         *string `gorm:"type:text"`
}

func (OutboxEvent) TableName() string { return "outbox" }
