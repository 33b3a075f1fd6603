package dto

type TranslateRequest struct {
	Text       string `json:"text" validate:"required,max=20000"`
	TargetLang string `json:"targetLang" validate:"required,oneof=en ar"`
	SourceLang string `json:"sourceLang" validate:"omitempty,oneof=en ar"`
}

type TranslateResponse struct {
	Translated         string `json:"translatedText"`
	SourceLangDetected string `json:"sourceLangDetected"`
	TargetLang         string `json:"targetLang"`
	Cached             bool   `json:"cached"`
}
