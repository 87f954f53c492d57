package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/pkg/bcrypt"
	"github.com/civicreport/civicreport-api/pkg/denylist"
	jwtPkg "github.com/civicreport/civicreport-api/pkg/jwt"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	tokens    *jwtPkg.Manager
	denylist  denylist.Denylist
	storage   storage.StorageService
	notify    *Dispatcher
	validator *utils.Validator
	rotate    bool
	logger    *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *jwtPkg.Manager,
	dl denylist.Denylist,
	store storage.StorageService,
	notify *Dispatcher,
	validator *utils.Validator,
	rotateRefreshTokens bool,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		denylist:  dl,
		storage:   store,
		notify:    notify,
		validator: validator,
		rotate:    rotateRefreshTokens,
		logger:    logger.Named("auth"),
	}
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// Register creates the account, stores an optional profile picture and queues the welcome email.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, profilePic *multipart.FileHeader) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)

	verr := &ValidationError{}
	if err := s.validator.Struct(req); err != nil {
		fields := s.validator.Fields(err)
		if fields == nil {
			return nil, err
		}
		verr.Merge(fields)
	}

	if req.Email != "" {
		exists, err := s.userRepo.EmailExists(ctx, req.Email, 0)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("email", ErrEmailTaken.Error())
		}
	}

	var pic *detectedFile
	if profilePic != nil {
		df, err := validateProfilePic(profilePic)
		var ferr *ValidationError
		switch {
		case errors.As(err, &ferr):
			verr.Merge(ferr.Fields)
		case err != nil:
			return nil, err
		default:
			pic = df
			defer pic.Close()
		}
	}

	if !verr.Empty() {
		return nil, verr
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:       req.Email,
		Password:    hashedPassword,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if pic != nil {
		key := profilePicKey(user.ID, pic.Ext())
		if err := pic.upload(ctx, s.storage, key); err != nil {
			// the account stays usable without a picture
			s.logger.Error("failed to store profile picture", zap.Uint("user_id", user.ID), zap.Error(err))
		} else if err := s.userRepo.UpdateProfilePic(ctx, user.ID, key); err != nil {
			s.logger.Error("failed to save profile picture", zap.Uint("user_id", user.ID), zap.Error(err))
			if err := s.storage.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to remove orphaned profile picture", zap.String("key", key), zap.Error(err))
			}
		} else {
			user.ProfilePic = key
		}
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	s.notify.Welcome(user)

	return user, nil
}

// Login checks credentials in a fixed order so each failure has its own field message.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, *jwtPkg.Pair, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, nil, &FieldError{Field: "email", Message: "Email is required."}
	}
	if req.Password == "" {
		return nil, nil, &FieldError{Field: "password", Message: "Password is required."}
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &FieldError{Field: "email", Message: "User not found."}
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, &FieldError{Field: "detail", Message: "Account is inactive."}
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, nil, &FieldError{Field: "password", Message: "Invalid credentials."}
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &models.LoginResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    models.LoginUser{ID: user.ID, Email: user.Email},
	}, pair, nil
}

// Refresh exchanges a refresh token for a new access token, rotating the refresh token when enabled.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenAbsent
	}

	claims, err := s.validRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if s.rotate {
		// concurrent refreshes race here; only one may spend the token
		spent, err := s.denylist.Spend(ctx, claims.ID, s.tokens.Remaining(claims))
		if err != nil {
			return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if !spent {
			return nil, ErrInvalidToken
		}
	}

	access, _, err := s.tokens.Generate(user.ID, jwtPkg.AccessToken)
	if err != nil {
		return nil, err
	}
	resp := &models.RefreshResponse{Access: access}

	if s.rotate {
		refresh, _, err := s.tokens.Generate(user.ID, jwtPkg.RefreshToken)
		if err != nil {
			return nil, err
		}
		resp.Refresh = refresh
	}

	return resp, nil
}

// Verify accepts any unexpired token this service issued that has not been revoked.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	if _, err := s.tokens.Validate(token, jwtPkg.AccessToken); err == nil {
		return nil
	}
	_, err := s.validRefresh(ctx, token)
	return err
}

// Logout revokes the refresh token when one is supplied. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.Validate(refreshToken, jwtPkg.RefreshToken)
	if err != nil {
		return nil
	}
	if err := s.denylist.Add(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.logger.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// Authenticate resolves an access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Validate(accessToken, jwtPkg.AccessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (s *AuthService) validRefresh(ctx context.Context, token string) (*jwtPkg.Claims, error) {
	claims, err := s.tokens.Validate(token, jwtPkg.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token denylist: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CreateSuperuser registers a staff account, used by the management CLI.
func (s *AuthService) CreateSuperuser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	user, err := s.Register(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetStaff(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("failed to grant staff: %w", err)
	}
	user.IsStaff = true
	return user, nil
}
