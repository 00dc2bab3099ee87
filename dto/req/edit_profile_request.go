package req

type EditProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
