// metrics объявляет прометеевские счётчики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins — завершённые попытки логина по провайдеру и исходу.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Completed social login attempts by provider and result.",
	}, []string{"provider", "result"})

	// Refreshes — попытки ротации refresh-токена по исходу.
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_refresh_total",
		Help: "Refresh token rotation attempts by result.",
	}, []string{"result"})
)

// Результаты для меток счётчиков.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// ProviderUnknown — метка для имён провайдеров, которых нет в реестре.
// Значение из URL нельзя пускать в метку как есть: неаутентифицированный
// клиент иначе раздувает реестр метрик произвольными парами меток.
const ProviderUnknown = "unknown"
