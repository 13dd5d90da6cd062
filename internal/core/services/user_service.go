package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/ports"
	"aulanet/pkg/utils"
	"aulanet/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// ImageUpload is an optional profile/thumbnail image attached to a
// request.
type ImageUpload struct {
	Data     []byte
	FileName string
	MimeType string
}

// UserService handles registration, login, and user CRUD including
// profile picture lifecycle in object storage.
type UserService struct {
	repo    ports.UserRepository
	auth    AuthService
	storage ports.ObjectStorage
	bucket  string
	logger  *zap.SugaredLogger
}

func NewUserService(repo ports.UserRepository, auth AuthService, storage ports.ObjectStorage, imageBucket string, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: repo, auth: auth, storage: storage, bucket: imageBucket, logger: logger}
}

func (s *UserService) Register(ctx context.Context, name, email, password string, role domain.Role, isAdmin bool) (*domain.User, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	email = utils.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsAdmin:      isAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) Get(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Teachers(ctx context.Context) ([]*domain.TeacherProfile, error) {
	return s.repo.ListTeachers(ctx)
}

// UpdateInput carries the optional fields of an update; nil means keep.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
	IsAdmin  *bool
	Image    *ImageUpload
}

func (s *UserService) Update(ctx context.Context, id domain.UserID, in UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if in.Image != nil {
		s.deleteProfileImage(ctx, user)
		key := uuid.NewString() + filepath.Ext(in.Image.FileName)
		url, err := s.storage.Upload(ctx, s.bucket, key, in.Image.Data, in.Image.MimeType)
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		user.ProfilePicture = url
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id domain.UserID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.deleteProfileImage(ctx, user)
	return s.repo.Delete(ctx, id)
}

// deleteProfileImage best-effort removes the user's current picture
// object; a storage failure is logged, not surfaced.
func (s *UserService) deleteProfileImage(ctx context.Context, user *domain.User) {
	if user.ProfilePicture == "" {
		return
	}
	key := storageKeyFromURL(user.ProfilePicture)
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warnw("could not delete previous profile picture",
			"user_id", user.ID, "key", key, "error", err)
	}
}

// storageKeyFromURL extracts the object key from a public object URL.
func storageKeyFromURL(url string) string {
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		return ""
	}
	return url[i+1:]
}
