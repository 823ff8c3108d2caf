package dto

// GoogleAuthURLResponse - ссылка для клиентского редиректа на Google
type GoogleAuthURLResponse struct {
	GoogleAuthURL string `json:"google_auth_url"`
}

type UserInfo struct {
	ID      string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// AuthResponse - ответ OAuth callback: профиль + сессионный токен
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserInfo `json:"user"`
}
