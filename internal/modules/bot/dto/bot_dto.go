package dto

type UpdateBotConfigRequest struct {
	Provider     string  `json:"provider" binding:"required,oneof=openai gemini"`
	Model        string  `json:"model" binding:"required,max=100"`
	SystemPrompt string  `json:"system_prompt" binding:"max=10000"`
	Temperature  float32 `json:"temperature" binding:"min=0,max=2"`
}
