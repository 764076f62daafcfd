package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status         string         `gorm:"type:varchar(32);not null;index"`
	SourceRef      string         `gorm:"type:text;not null"`
	DocumentRef    string         `gorm:"type:text;not null"`
	ApplicantEmail string         `gorm:"type:text"`
	State          datatypes.JSON `gorm:"type:jsonb"` // full RunState checkpoint
	Errors         datatypes.JSON `gorm:"type:jsonb"` // ordered []RunError
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "match_sessions"
}
