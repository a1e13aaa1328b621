// services/student_service.go
package services

import (
	"gorm.io/gorm"

	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/persistence"
)

type StudentService struct {
	db persistence.Database
}

func NewStudentService(db persistence.Database) *StudentService {
	return &StudentService{db: db}
}

// GetStudentWithStats 获取学生信息和统计
func (s *StudentService) GetStudentWithStats(studentID int64) (map[string]interface{}, error) {
	var result map[string]interface{}

	// 使用事务确保数据一致性
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var student models.GormStudent
		if err := tx.Where("student_id = ?", studentID).First(&student).Error; err != nil {
			return err
		}

		stats, err := s.db.GetStudentStats(studentID)
		if err != nil {
			return err
		}

		result = map[string]interface{}{
			"student": student,
			"stats":   stats,
		}

		return nil
	})

	return result, err
}

// CountMessageSent 累加学生的聊天计数
func (s *StudentService) CountMessageSent(studentID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var student models.GormStudent
		if err := tx.Where("student_id = ?", studentID).First(&student).Error; err != nil {
			return err
		}

		return tx.Model(&student).Update("stats", gorm.Expr(`
            jsonb_set(
                COALESCE(stats, '{}'::jsonb),
                '{messages_sent}',
                to_jsonb(COALESCE((stats->>'messages_sent')::int, 0) + 1)
            )
        `)).Error
	})
}
