package services

import (
	"context"

	"payflow_backend/internal/auth"
	"payflow_backend/internal/logger"
	"payflow_backend/internal/models"
	"payflow_backend/internal/repositories"
	"payflow_backend/internal/services/dto"
	"payflow_backend/internal/services/google"
	"payflow_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type AuthService interface {
	GoogleAuthURL() string
	HandleGoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

type AuthServiceImpl struct {
	userRepo  repositories.UserRepository
	oauth     google.OAuthService
	jwtSecret string
	jwtTTL    int
}

func NewAuthService(
	userRepo repositories.UserRepository,
	oauth google.OAuthService,
	jwtSecret string,
	jwtTTL int,
) AuthService {
	return &AuthServiceImpl{
		userRepo:  userRepo,
		oauth:     oauth,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// GoogleAuthURL - ссылка на страницу согласия Google со свежим state
func (s *AuthServiceImpl) GoogleAuthURL() string {
	return s.oauth.AuthCodeURL(uuid.NewString())
}

// HandleGoogleCallback - обмен кода на профиль, upsert пользователя,
// выпуск access-токена
func (s *AuthServiceImpl) HandleGoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apperrors.NewExternalServiceError(err, "google")
	}

	user, err := s.upsertUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		AccessToken: token,
		User: dto.UserInfo{
			ID:      user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Picture: user.Picture,
		},
	}, nil
}

// upsertUser - явный "find-else-create" вместо ON CONFLICT:
// сначала ищем по google_id, потом привязываем по email, иначе создаем
func (s *AuthServiceImpl) upsertUser(ctx context.Context, profile *google.Profile) (*models.User, error) {
	user, err := s.userRepo.FindByGoogleID(profile.GoogleID)
	if err == nil {
		user.Email = profile.Email
		user.Name = profile.Name
		user.Picture = profile.Picture
		if err := s.userRepo.Update(user); err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		return user, nil
	}
	if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError(err)
	}

	// Аккаунт мог быть создан раньше без google_id - привязываем по email
	user, err = s.userRepo.FindByEmail(profile.Email)
	if err == nil {
		googleID := profile.GoogleID
		user.GoogleID = &googleID
		user.Name = profile.Name
		user.Picture = profile.Picture
		if err := s.userRepo.Update(user); err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		return user, nil
	}
	if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError(err)
	}

	googleID := profile.GoogleID
	user = &models.User{
		GoogleID: &googleID,
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	logger.CtxInfo(ctx, "user created via google oauth", "email", user.Email)
	return user, nil
}
