// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormStudent is the roster entry a join payload's studentId points at.
type GormStudent struct {
	gorm.Model
	StudentID int64                  `gorm:"uniqueIndex;not null"`
	Name      string                 `gorm:"not null"`
	Grade     string                 `gorm:"default:''"`
	Profile   map[string]interface{} `gorm:"type:jsonb"`
	Stats     map[string]interface{} `gorm:"type:jsonb"`
}

// GormChatMessage is the write-behind archive of the in-room chat log.
// Shares the table the raw-SQL archive writes into.
type GormChatMessage struct {
	gorm.Model
	RoomNumber string `gorm:"index;not null"`
	Author     string `gorm:"not null"`
	Content    string `gorm:"type:text;not null"`
}

func (GormChatMessage) TableName() string { return "chat_messages" }

// StudentStats 学生统计信息
type StudentStats struct {
	TotalSessions int `json:"total_sessions"`
	MessagesSent  int `json:"messages_sent"`
	OnlineMinutes int `json:"online_minutes"`
}
