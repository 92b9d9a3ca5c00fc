package service

import (
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/repository/interfaces"
	svcerr "matbook-backend/internal/service/errors"
)

type UserService struct {
	repo interfaces.UserRepository
}

func NewUserService(repo interfaces.UserRepository) *UserService {
	return &UserService{repo}
}

func (s *UserService) GetUserByID(id int) (*model.User, error) {
	return s.repo.FindByID(id)
}

// GetUserData 按查看者视角取用户完整投影
func (s *UserService) GetUserData(id, viewerID int) (*model.UserData, error) {
	return s.repo.FindUserData(id, projection.ForUser(viewerID))
}

func (s *UserService) GetUserDataByUsername(username string, viewerID int) (*model.UserData, error) {
	return s.repo.FindUserDataByUsername(username, projection.ForUser(viewerID))
}

// UpdateProfile 更新资料，只允许本人操作
func (s *UserService) UpdateProfile(user *model.User) error {
	existing, err := s.repo.FindByID(user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return svcerr.New(svcerr.ErrNotFound, "用户不存在")
	}
	if user.DisplayName == "" {
		user.DisplayName = existing.DisplayName
	}
	if user.AvatarURL == "" {
		user.AvatarURL = existing.AvatarURL
	}
	return s.repo.Update(user)
}

func (s *UserService) Count() (int, error) {
	return s.repo.Count()
}
