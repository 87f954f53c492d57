package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/pkg/bcrypt"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo  *repository.UserRepository
	storage   storage.StorageService
	validator *utils.Validator
	logger    *zap.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	store storage.StorageService,
	validator *utils.Validator,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		storage:   store,
		validator: validator,
		logger:    logger.Named("user"),
	}
}

// Render turns a user into its public representation with an absolute picture URL.
func (s *UserService) Render(user *models.User, withFullName bool) models.UserResponse {
	return user.ToResponse(s.storage.URL, withFullName)
}

// UpdateProfile applies a full (partial=false) or partial update. With allowEmail false an
// email in the request is ignored.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest, partial, allowEmail bool) (*models.User, error) {
	if !allowEmail {
		req.Email = nil
	}
	if req.Email != nil {
		normalized := normalizeEmail(*req.Email)
		req.Email = &normalized
	}

	verr := &ValidationError{}
	if !partial {
		if allowEmail && req.Email == nil {
			verr.Add("email", "This field is required.")
		}
		if req.FirstName == nil {
			verr.Add("first_name", "This field is required.")
		}
	}

	if err := s.validator.Struct(req); err != nil {
		fields := s.validator.Fields(err)
		if fields == nil {
			return nil, err
		}
		verr.Merge(fields)
	}

	if req.Email != nil && *req.Email != "" {
		exists, err := s.userRepo.EmailExists(ctx, *req.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("email", ErrEmailTaken.Error())
		}
	}

	if !verr.Empty() {
		return nil, verr
	}

	var fields []string
	if req.Email != nil {
		user.Email = *req.Email
		fields = append(fields, "email")
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
		fields = append(fields, "first_name")
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
		fields = append(fields, "last_name")
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
		fields = append(fields, "phone_number")
	}

	if err := s.userRepo.UpdateFields(ctx, user, fields...); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, user *models.User, req models.ChangePasswordRequest) error {
	verr := &ValidationError{}
	if err := s.validator.Struct(req); err != nil {
		fields := s.validator.Fields(err)
		if fields == nil {
			return err
		}
		verr.Merge(fields)
	}

	if req.CurrentPassword != "" {
		if err := bcrypt.ComparePassword(user.Password, req.CurrentPassword); err != nil {
			verr.Add("current_password", "Current password is incorrect.")
		}
	}
	if !verr.Empty() {
		return verr
	}

	hashedPassword, err := bcrypt.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	user.Password = hashedPassword

	s.logger.Info("password changed", zap.Uint("user_id", user.ID))
	return nil
}

func (s *UserService) UpdateFirstName(ctx context.Context, user *models.User, req models.UpdateFirstNameRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		if fields := s.validator.Fields(err); fields != nil {
			return nil, &ValidationError{Fields: fields}
		}
		return nil, err
	}

	user.FirstName = req.FirstName
	if err := s.userRepo.UpdateFields(ctx, user, "first_name"); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfilePic stores the new picture and removes the previous one.
func (s *UserService) UpdateProfilePic(ctx context.Context, user *models.User, file *multipart.FileHeader) error {
	if file == nil {
		return fieldError("profile_pic", "No file was submitted.")
	}

	pic, err := validateProfilePic(file)
	if err != nil {
		return err
	}
	defer pic.Close()

	key := profilePicKey(user.ID, pic.Ext())
	if err := pic.upload(ctx, s.storage, key); err != nil {
		return fmt.Errorf("failed to store profile picture: %w", err)
	}

	previous := user.ProfilePic
	if err := s.userRepo.UpdateProfilePic(ctx, user.ID, key); err != nil {
		if previous != key {
			_ = s.storage.Delete(ctx, key)
		}
		return err
	}
	user.ProfilePic = key

	if previous != "" && previous != key {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to remove old profile picture", zap.String("key", previous), zap.Error(err))
		}
	}
	return nil
}
