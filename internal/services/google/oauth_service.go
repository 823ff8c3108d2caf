package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile - профиль пользователя, полученный от Google
type Profile struct {
	GoogleID string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// OAuthService выполняет обмен "authorization code -> access token -> профиль"
type OAuthService interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

type OAuthServiceImpl struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewOAuthService(clientID, clientSecret, redirectURL string) *OAuthServiceImpl {
	return &OAuthServiceImpl{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: googleoauth.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// AuthCodeURL возвращает URL для редиректа на страницу согласия Google
func (s *OAuthServiceImpl) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// ExchangeCode меняет authorization code на access token и
// забирает профиль через userinfo endpoint. Без ретраев: любой
// сбой провайдера поднимается наверх как ошибка аутентификации.
func (s *OAuthServiceImpl) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	client := s.config.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google userinfo read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned %d: %s", resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("google userinfo decode failed: %w", err)
	}
	if profile.GoogleID == "" || profile.Email == "" {
		return nil, fmt.Errorf("google userinfo incomplete: missing id or email")
	}

	return &profile, nil
}
