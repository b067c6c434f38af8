package domain

// EnhancementParams is the user's draft and styling guidance for one
// enhancement. Empty strings mean "unspecified". JSON names match the
// frontend payload.
type EnhancementParams struct {
	InitialPrompt        string `json:"initialPrompt" validate:"notblank,maxbytes=20000"`
	TargetAIModel        string `json:"targetAiModel" validate:"notblank,max=100"`
	StyleOrTone          string `json:"styleOrTone" validate:"max=500"`
	DetailLevel          string `json:"detailLevel" validate:"max=500"`
	KeywordsToAdd        string `json:"keywordsToAdd" validate:"max=2000"`
	NegativePrompts      string `json:"negativePrompts" validate:"max=2000"`
	ArtisticMedium       string `json:"artisticMedium" validate:"max=500"`
	CameraAngle          string `json:"cameraAngle" validate:"max=500"`
	Lighting             string `json:"lighting" validate:"max=500"`
	ColorPalette         string `json:"colorPalette" validate:"max=500"`
	SpecificInstructions string `json:"specificInstructions" validate:"max=5000"`
	PromptLanguage       string `json:"promptLanguage" validate:"max=20"`
}

// ModelDescriptor is static metadata about a target model.
type ModelDescriptor struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Provider     string `json:"provider"`
	IsImageModel bool   `json:"is_image_model"`
}

// DisplayName returns the label, or the id when the label is empty.
func (m ModelDescriptor) DisplayName() string {
	if m.Label != "" {
		return m.Label
	}
	return m.ID
}
