package imagesearch

import (
	"context"
	"errors"
	"strings"
)

// ErrorType представляет тип ошибки при работе с API поиска изображений.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRateLimit
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRateLimit:
		return "rate_limit"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "Ключ Unsplash недействителен или отсутствует. Проверьте UNSPLASH_ACCESS_KEY."
	case ErrTimeout:
		return "Превышено время ожидания ответа от Unsplash."
	case ErrNetwork:
		return "Сервер Unsplash недоступен. Проверьте подключение к интернету."
	case ErrRateLimit:
		return "Превышен лимит запросов Unsplash. Подождите перед следующей попыткой."
	default:
		return "Неизвестная ошибка поиска изображений."
	}
}

// ClassifyError классифицирует ошибку по типу для лучшей диагностики.
//
//   - ErrAuthFailed: 401, 403, unauthorized
//   - ErrTimeout: timeout, deadline exceeded
//   - ErrNetwork: connection refused, no such host
//   - ErrRateLimit: 429, Too Many Requests
//   - ErrUnknown: все остальные ошибки
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	errMsg := err.Error()
	errMsgLower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(errMsg, "status 401") ||
		strings.Contains(errMsg, "status 403") ||
		strings.Contains(errMsgLower, "unauthorized"):
		return ErrAuthFailed
	case strings.Contains(errMsgLower, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded"):
		return ErrTimeout
	case strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host"):
		return ErrNetwork
	case strings.Contains(errMsg, "status 429") ||
		strings.Contains(errMsg, "Too Many Requests"):
		return ErrRateLimit
	}

	return ErrUnknown
}
