package dto

import "github.com/google/uuid"

type ChatMessageInput struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Messages []ChatMessageInput `json:"messages" binding:"required,min=1,dive"`
	ChatID   *uuid.UUID         `json:"chatId"`
}

type ChatResponse struct {
	Reply  string    `json:"reply"`
	ChatID uuid.UUID `json:"chatId"`
}
