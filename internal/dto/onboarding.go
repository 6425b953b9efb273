package dto

type SaveDraftRequest struct {
	StepData    map[string]interface{} `json:"stepData"`
	CurrentStep int                    `json:"currentStep"`
}

type OnboardingStatusResponse struct {
	Status      string                 `json:"status"`
	CurrentStep int                    `json:"currentStep"`
	Data        map[string]interface{} `json:"data"`
	UpdatedAt   string                 `json:"updatedAt,omitempty"`
}
