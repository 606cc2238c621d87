// Package application 实现认证上下文的应用服务
package application

// RegisterCommand 注册命令
type RegisterCommand struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginCommand 登录命令
type LoginCommand struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserDTO 用户视图，不包含密码散列
type UserDTO struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Type     string `json:"type"`
}
