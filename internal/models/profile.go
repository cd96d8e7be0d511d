package models

// Profile — нормализованный снимок профиля, полученный от провайдера.
//
// Провайдеры раскрывают разный набор полей, поэтому все поля, кроме
// ExternalID, опциональны: пустая строка означает «провайдер не сообщил».
type Profile struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}
