// redact содержит хелперы для безопасного вывода чувствительных данных в логи.
package redact

import "strings"

// Email маскирует локальную часть адреса: "alice@x.com" -> "al***@x.com".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// ExternalID оставляет только первые символы внешнего идентификатора.
func ExternalID(s string) string {
	if len(s) <= 4 {
		return "***"
	}

	return s[:4] + "***"
}

func Token() string { return "[REDACTED_TOKEN]" }
