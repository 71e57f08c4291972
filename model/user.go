package model

import "time"

// AnonymousAccount 未登录访问者的占位账号
// '@' 不在账号字符集内，不会与真实账号冲突
const AnonymousAccount = "@anonymous"

// User 用户
type User struct {
	Account        string    `json:"account" gorm:"primaryKey;size:191"`
	DisplayName    string    `json:"display_name" gorm:"size:191;not null"`
	PasswordHash   string    `json:"-" gorm:"size:191;not null"` // 不出现在 API 响应中
	IsBan          bool      `json:"is_ban" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	LastLoggedInAt time.Time `json:"last_logined_at" gorm:"column:last_logined_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "user"
}

// IsAnonymous 判断是否为匿名访问者
func IsAnonymous(account string) bool {
	return account == "" || account == AnonymousAccount
}
