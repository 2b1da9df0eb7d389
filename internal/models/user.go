package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户基础信息表
// 余额以最小货币单位（恩韦）存储，只允许通过仓储层的原子借贷操作变动
type User struct {
	BaseModel
	Phone       string     `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	DisplayName string     `gorm:"size:100" json:"display_name"`
	DateOfBirth string     `gorm:"size:20" json:"date_of_birth"`
	Country     string     `gorm:"size:50" json:"country"`
	Balance     int64      `gorm:"not null;default:0" json:"balance"`
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, deactivated
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// TableName 指定User表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// 设置默认昵称
	if u.DisplayName == "" {
		u.DisplayName = u.Phone
	}
	// 设置默认状态
	if u.Status == "" {
		u.Status = "active"
	}
	return nil
}

// IsActive 检查用户是否激活
func (u *User) IsActive() bool {
	return u.Status == "active"
}

// CanAfford 检查余额是否足以支付指定注额
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}

// UpdateLoginInfo 更新登录信息
func (u *User) UpdateLoginInfo() {
	now := time.Now()
	u.LastLoginAt = &now
}
