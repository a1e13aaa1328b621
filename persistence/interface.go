// persistence/interface.go
package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wfunc/officeserver/models"
)

// ChatStore archives chat messages. Implemented with raw SQL; the archive is
// a plain insert path and needs none of the ORM machinery.
type ChatStore interface {
	SaveChatMessage(rec models.ChatRecord) error
	Close() error
}

// Database 学生名册数据库接口
type Database interface {
	GetStudent(studentID int64) (*models.GormStudent, error)
	GetStudentStats(studentID int64) (map[string]interface{}, error)
	Transaction(fn func(tx *gorm.DB) error) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
