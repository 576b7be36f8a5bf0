package model

import "time"

// User represents an employee account in the system.
// 用户通过统一认证SSO登录，开发环境也可使用本地账号密码登录。
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;index" json:"name"`                // 姓名
	JobNumber    string    `gorm:"size:100;uniqueIndex" json:"jobNumber"`     // 工号
	JobName      string    `gorm:"size:100" json:"jobName"`                   // 职位
	Token        string    `gorm:"size:1024" json:"-"`                        // OA token
	AvatarURL    string    `gorm:"size:512" json:"avatarUrl"`                 // 个人头像
	PasswordHash string    `gorm:"size:255" json:"-"`                         // 本地账号密码哈希，SSO用户为空
	Power        int       `gorm:"default:0" json:"power"`                    // 权限级别
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Studio 一级项目组
type Studio struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;index" json:"name"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (Studio) TableName() string {
	return "studios"
}

// Team 二级工作室，隶属于一个Studio
type Team struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;index" json:"name"`
	StudioID int64  `gorm:"index" json:"studioId"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamMember 用户与工作室的成员关系
type TeamMember struct {
	UserID int64 `gorm:"primaryKey" json:"userId"`
	TeamID int64 `gorm:"primaryKey" json:"teamId"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

// UserProfile 登录接口返回的用户视图，附带组织信息
type UserProfile struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	JobNumber string  `json:"jobNumber"`
	JobName   string  `json:"jobName"`
	AvatarURL string  `json:"avatarUrl"`
	IsActive  bool    `json:"isActive"`
	Studio    *Studio `json:"studio,omitempty"`
	Team      *Team   `json:"team,omitempty"`
}
