package models

import "github.com/google/uuid"

// Identity — идентичность аутентифицированного запроса.
// Живёт ровно один запрос: кладётся в контекст мидлваром аутентификации
// и потребляется хендлерами единым образом независимо от того, каким
// способом запрос был аутентифицирован.
type Identity struct {
	AccountID  uuid.UUID
	Provider   string
	ExternalID string
}
