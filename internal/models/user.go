// internal/models/user.go
package models

// User is the profile shape returned by /api/user/profile. Lookups by
// username leave Email empty.
type User struct {
	ID             string `json:"_id"`
	Email          string `json:"email,omitempty"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

// UserProfile is another user's public profile together with their posts.
type UserProfile struct {
	User
	Posts []Post `json:"posts"`
}

// UserPatch carries a partial user. Nil fields are left untouched.
type UserPatch struct {
	FullName       *string `json:"full_name,omitempty"`
	Username       *string `json:"username,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Apply merges the non-nil fields of p into u.
func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
