package repository

import (
	"errors"
	"fmt"

	"MuseGen/model"

	"gorm.io/gorm"
)

// SSOProfile 统一认证返回的用户信息，用于登录时落库
type SSOProfile struct {
	Name       string // alias 姓名
	JobNumber  string // username 工号
	JobName    string
	AvatarURL  string
	Token      string
	StudioName string
	TeamName   string // 可为空，部门没有二级工作室时
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id int64) (*model.User, error)
	GetUserByJobNumber(jobNumber string) (*model.User, error)
	UpsertFromSSO(profile SSOProfile) (*model.User, error)
	OrgOf(userID int64) (*model.Studio, *model.Team, error)
	ProfileOf(user *model.User) (*model.UserProfile, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *gormUserRepository) CreateUser(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *gormUserRepository) GetUserByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByJobNumber retrieves a user by their job number.
func (r *gormUserRepository) GetUserByJobNumber(jobNumber string) (*model.User, error) {
	var user model.User
	err := r.db.Where("job_number = ?", jobNumber).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by job number %s: %w", jobNumber, err)
	}
	return &user, nil
}

// UpsertFromSSO 按SSO返回的信息创建或更新用户，并维护其组织归属。
// 整个过程在一个事务内完成。
func (r *gormUserRepository) UpsertFromSSO(profile SSOProfile) (*model.User, error) {
	var user model.User

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("job_number = ?", profile.JobNumber).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = model.User{
				Name:      profile.Name,
				JobNumber: profile.JobNumber,
				JobName:   profile.JobName,
				AvatarURL: profile.AvatarURL,
				Token:     profile.Token,
				IsActive:  true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user from SSO: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to query user: %w", err)
		} else {
			// 每次登录刷新职位、头像和OA token
			user.Name = profile.Name
			user.JobName = profile.JobName
			user.AvatarURL = profile.AvatarURL
			user.Token = profile.Token
			if err := tx.Save(&user).Error; err != nil {
				return fmt.Errorf("failed to update user from SSO: %w", err)
			}
		}

		if profile.StudioName == "" {
			return nil
		}

		var studio model.Studio
		err = tx.Where("name = ?", profile.StudioName).First(&studio).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			studio = model.Studio{Name: profile.StudioName, IsActive: true}
			if err := tx.Create(&studio).Error; err != nil {
				return fmt.Errorf("failed to create studio: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to query studio: %w", err)
		}

		if profile.TeamName == "" {
			return nil
		}

		var team model.Team
		err = tx.Where("name = ? AND studio_id = ?", profile.TeamName, studio.ID).First(&team).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			team = model.Team{Name: profile.TeamName, StudioID: studio.ID, IsActive: true}
			if err := tx.Create(&team).Error; err != nil {
				return fmt.Errorf("failed to create team: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to query team: %w", err)
		}

		var member model.TeamMember
		err = tx.Where("user_id = ? AND team_id = ?", user.ID, team.ID).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			member = model.TeamMember{UserID: user.ID, TeamID: team.ID}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("failed to create team member: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to query team member: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// OrgOf 查询用户所属的项目组和工作室，取第一条成员关系
func (r *gormUserRepository) OrgOf(userID int64) (*model.Studio, *model.Team, error) {
	var member model.TeamMember
	err := r.db.Where("user_id = ?", userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query team member: %w", err)
	}

	var team model.Team
	if err := r.db.First(&team, member.TeamID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to query team: %w", err)
	}

	var studio model.Studio
	if err := r.db.First(&studio, team.StudioID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to query studio: %w", err)
	}

	return &studio, &team, nil
}

// ProfileOf 构建登录接口返回的用户视图
func (r *gormUserRepository) ProfileOf(user *model.User) (*model.UserProfile, error) {
	studio, team, err := r.OrgOf(user.ID)
	if err != nil {
		return nil, err
	}

	return &model.UserProfile{
		ID:        user.ID,
		Name:      user.Name,
		JobNumber: user.JobNumber,
		JobName:   user.JobName,
		AvatarURL: user.AvatarURL,
		IsActive:  user.IsActive,
		Studio:    studio,
		Team:      team,
	}, nil
}
