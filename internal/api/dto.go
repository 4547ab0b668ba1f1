package api

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CreateBuildingRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=255"`
}

type CreateUnitRequest struct {
	BuildingID uint   `json:"building_id" validate:"required"`
	UnitNumber string `json:"unit_number" validate:"required,max=64"`
	Floor      *int   `json:"floor"`
}

type CreateMembershipRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	UnitID uint   `json:"unit_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

type UpdateMembershipRequest struct {
	Role string `json:"role" validate:"required"`
}

type CreateRequestRequest struct {
	BuildingID  *uint   `json:"building_id"`
	UnitID      *uint   `json:"unit_id"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type VoteRequest struct {
	RequestID uint `json:"maintenance_request_id" validate:"required"`
	Dir       *int `json:"dir" validate:"required,oneof=0 1"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
