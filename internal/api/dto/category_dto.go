package dto

import "time"

type CategoryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCategoryDTO struct {
	Name string `json:"name" binding:"required" validate:"min=1,max=100"`
}
