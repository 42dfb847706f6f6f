package model

// User is the authenticated account profile returned by the auth endpoints.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

// UserMetadata holds optional profile fields.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

// DisplayName prefers the full name and falls back to the email.
func (u User) DisplayName() string {
	if u.UserMetadata.FullName != "" {
		return u.UserMetadata.FullName
	}
	return u.Email
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

// AuthResponse is returned by login and, optionally, by register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
