package models

import "time"

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Role      string    `gorm:"size:20;not null;default:'student'" json:"role"`
	PhotoURL  string    `gorm:"size:255" json:"photo_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Responses []StudentResponse `gorm:"foreignKey:StudentID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
