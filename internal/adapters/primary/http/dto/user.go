package dto

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Database string `json:"database" binding:"required"`
}

type DeleteUserRequest struct {
	Username string `json:"username" binding:"required"`
	Database string `json:"database" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PasswordResponse struct {
	Password string `json:"password"`
}
