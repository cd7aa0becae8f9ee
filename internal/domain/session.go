package domain

type Role string

const (
	RoleTraveler Role = "traveler"
	RoleAdmin    Role = "admin"
	RoleAgency   Role = "agency"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        Role   `json:"role,omitempty"`
}

type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	RealName string  `json:"real_name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Role     Role    `json:"role,omitempty"`
}
