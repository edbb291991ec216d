package model

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type Group struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Members []GroupMember `gorm:"foreignKey:GroupID"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	ID        uint      `gorm:"primaryKey"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_member"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_member"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
