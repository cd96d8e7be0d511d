// log протаскивает request-scoped slog.Logger через context.Context.
// Logging-мидлвар кладёт в контекст логгер с request_id, и дальше сервисный
// слой достаёт его через From, не принимая логгер отдельным аргументом.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста. Вне HTTP-запроса (старт приложения,
// фоновые задачи) контекст логгера не несёт — возвращается slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
