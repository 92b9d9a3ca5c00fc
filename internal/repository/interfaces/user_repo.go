package interfaces

import (
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
)

// UserRepository 定义了用户相关的数据库操作接口
type UserRepository interface {
	FindByID(id int) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	// FindUserData 按投影规格取用户完整投影，未找到时返回 (nil, nil)
	FindUserData(id int, spec projection.UserSpec) (*model.UserData, error)
	FindUserDataByUsername(username string, spec projection.UserSpec) (*model.UserData, error)
	Update(user *model.User) error
	Count() (int, error)
}
