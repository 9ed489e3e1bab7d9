package models

import "time"

type Student struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	Name                 string    `gorm:"not null" json:"name"`
	ClassID              string    `gorm:"type:varchar(64);not null;index" json:"class_id"`
	RollNumber           int       `gorm:"not null;default:0" json:"roll_number"`
	AttendancePercentage int       `gorm:"not null;default:0" json:"attendance_percentage"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName задает имя таблицы в БД
func (Student) TableName() string {
	return "students"
}

// IsValid проверяет валидность данных
func (s *Student) IsValid() bool {
	if s.Name == "" || s.ClassID == "" {
		return false
	}
	if s.RollNumber < 0 {
		return false
	}
	if s.AttendancePercentage < 0 || s.AttendancePercentage > 100 {
		return false
	}
	return true
}
