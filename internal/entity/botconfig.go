package entity

import "time"

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// BotConfig is a single-row table holding the assistant configuration
// edited from the admin panel.
type BotConfig struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Provider     string    `gorm:"size:20;not null;default:openai" json:"provider"`
	Model        string    `gorm:"size:100;not null" json:"model"`
	SystemPrompt string    `gorm:"type:text" json:"system_prompt"`
	Temperature  float32   `gorm:"not null;default:0.7" json:"temperature"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
