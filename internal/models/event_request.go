package models

import "walletfy-api/internal/repository"

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	Name        *string  `json:"name" binding:"required,nonempty,min=3,max=100"`
	Description *string  `json:"description" binding:"required,nonempty,min=5,max=500"`
	Date        *float64 `json:"date" binding:"required,gt=0,unixtime"` // Unix seconds
	Amount      *float64 `json:"amount" binding:"required"`
	Type        *string  `json:"type" binding:"required,nonempty,oneof=income expense"`
	Attachment  *string  `json:"attachment"`
	Category    *string  `json:"category" binding:"omitnil,max=50"`
}

func (r *CreateEventRequest) Normalize() {
	trim(&r.Name)
	trim(&r.Description)
	trim(&r.Category)
}

// UpdateEventRequest represents a partial event update; nil fields stay unchanged
type UpdateEventRequest struct {
	Name        *string  `json:"name" binding:"omitnil,nonempty,min=3,max=100"`
	Description *string  `json:"description" binding:"omitnil,nonempty,min=5,max=500"`
	Date        *float64 `json:"date" binding:"omitnil,gt=0,unixtime"`
	Amount      *float64 `json:"amount"`
	Type        *string  `json:"type" binding:"omitnil,nonempty,oneof=income expense"`
	Attachment  *string  `json:"attachment"`
	Category    *string  `json:"category" binding:"omitnil,max=50"`
}

func (r *UpdateEventRequest) Normalize() {
	trim(&r.Name)
	trim(&r.Description)
	trim(&r.Category)
}

// Patch converts the request into a repository patch
func (r *UpdateEventRequest) Patch() repository.EventPatch {
	patch := repository.EventPatch{
		Name:        r.Name,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		Attachment:  r.Attachment,
		Category:    r.Category,
	}
	if r.Date != nil {
		date := int64(*r.Date)
		patch.Date = &date
	}
	return patch
}
