package models

type RegisterRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email,max=254"`
	Password    string `json:"password" form:"password" validate:"required,min=8,not_numeric"`
	FirstName   string `json:"first_name" form:"first_name" validate:"required,max=30,name"`
	LastName    string `json:"last_name" form:"last_name" validate:"omitempty,max=30,name"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"omitempty,phone"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" form:"refresh"`
}

type VerifyRequest struct {
	Token string `json:"token" form:"token"`
}

type LoginUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    LoginUser `json:"user"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// UpdateProfileRequest is shared by full (PUT) and partial (PATCH) updates;
// nil fields were not sent.
type UpdateProfileRequest struct {
	Email       *string `json:"email" form:"email" validate:"omitnil,required,email,max=254"`
	FirstName   *string `json:"first_name" form:"first_name" validate:"omitnil,required,max=30,name"`
	LastName    *string `json:"last_name" form:"last_name" validate:"omitempty,max=30,name"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" validate:"omitempty,phone"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"required,min=8,not_numeric"`
}

type UpdateFirstNameRequest struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=30,name"`
}
