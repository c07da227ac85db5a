package dto

type TagDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateTagDTO struct {
	Name string `json:"name" binding:"required" validate:"min=1,max=50"`
}
