package transport

type RegisterRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Username    string `json:"username"    validate:"required,min=2,max=32"`
	Password    string `json:"password"    validate:"required,min=8"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
}

type RegisterResponse struct {
	UserID                string `json:"userId"`
	Username              string `json:"username"`
	Email                 string `json:"email"`
	Discriminator         string `json:"discriminator"`
	VerificationEmailSent bool   `json:"verificationEmailSent"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	User         LoginUser `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Enable2FAResponse struct {
	Secret      string   `json:"secret"`
	QRCode      string   `json:"qrCode"`
	BackupCodes []string `json:"backupCodes"`
}

type Verify2FARequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type Verify2FAResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// Profile is the cached representation of a user. Public strips the private
// fields before it leaves the service.
type Profile struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	Discriminator    string   `json:"discriminator"`
	Email            string   `json:"email,omitempty"`
	Avatar           string   `json:"avatar"`
	Banner           string   `json:"banner"`
	Bio              string   `json:"bio"`
	CustomStatus     string   `json:"customStatus"`
	Badges           []string `json:"badges"`
	EmailVerified    *bool    `json:"emailVerified,omitempty"`
	TwoFactorEnabled *bool    `json:"twoFactorEnabled,omitempty"`
	CreatedAt        string   `json:"createdAt"`
}

func (p Profile) Public() Profile {
	p.Email = ""
	p.EmailVerified = nil
	p.TwoFactorEnabled = nil
	return p
}

type UpdateProfileRequest struct {
	Username     *string `json:"username"     validate:"omitempty,min=2,max=32"`
	Bio          *string `json:"bio"          validate:"omitempty,max=190"`
	CustomStatus *string `json:"customStatus" validate:"omitempty,max=128"`
}

type SearchUsersRequest struct {
	Q     string `query:"q"     validate:"required,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

type UserSummary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

type SearchUsersResponse struct {
	Users []UserSummary `json:"users"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
