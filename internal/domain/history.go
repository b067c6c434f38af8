package domain

import "time"

// PromptHistory records one successful enhancement.
type PromptHistory struct {
	ID             string            `json:"id"`
	UserID         *string           `json:"user_id,omitempty"`
	ModelID        string            `json:"model_id"`
	Provider       string            `json:"provider"`
	InputPrompt    string            `json:"input_prompt"`
	EnhancedPrompt string            `json:"enhanced_prompt"`
	Params         EnhancementParams `json:"params"`
	CreatedAt      time.Time         `json:"created_at"`
}
