// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку сервисного слоя, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Причины отказа токена (просрочен/битый/плохая подпись/несовпадение с
// сохранённым) наружу не различаются — всем им соответствует единый 401;
// детали остаются во внутренних логах.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
)

var (
	// ErrMalformedAuthHeader — заголовок Authorization отсутствует или не в
	// формате "Bearer <token>" там, где токен обязателен. Для клиента это
	// тот же отказ аутентификации, что и невалидный токен: 401.
	ErrMalformedAuthHeader = errors.New("malformed authorization header")

	// ErrInvalidArgument — запрос не прошёл разбор на уровне HTTP-слоя
	// (битый JSON, неизвестные поля, несовпавший OAuth state).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated — защищённый маршрут вызван без установленной
	// идентичности запроса.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг доменных ошибок на HTTP/FE-код/сообщение:
//   - битые входные данные -> 400
//   - любой отказ аутентификации (отсутствующий/кривой заголовок,
//     невалидный/просроченный токен, токен не того вида, несовпадение
//     refresh-токена, профиль без external id) -> 401
//   - несуществующий аккаунт или провайдер -> 404
//   - отказ/недоступность провайдера -> 502
//   - Canceled -> 499, DeadlineExceeded -> 504
//   - прочее -> 500/internal (без раскрытия деталей)
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		// Программная ошибка вызова: не маскируем баг "успешным" ответом.
		return http.StatusInternalServerError, "internal", "internal error"

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, service.ErrNicknameRequired),
		errors.Is(err, service.ErrAgreementRequired):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"

	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrMalformedAuthHeader),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrWrongTokenKind),
		errors.Is(err, service.ErrCredentialMismatch),
		errors.Is(err, service.ErrMissingExternalID):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"

	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrUnknownProvider):
		return http.StatusNotFound, "not_found", "not found"

	case errors.Is(err, service.ErrProviderExchangeFailed):
		return http.StatusBadGateway, "provider_unavailable", "identity provider unavailable"

	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
