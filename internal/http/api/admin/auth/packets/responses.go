package packets

type TokenResponse struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	HasAPIKey bool    `json:"has_api_key"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}
