package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodePersistence  ErrorCode = "PERSISTENCE_ERROR"
)

// Причины конфликтов, которые клиент может различать программно.
const (
	ReasonIllegalTransition = "illegal_transition"
	ReasonDuplicatePending  = "duplicate_pending"
	ReasonSelfSwap          = "self_swap"
	ReasonSkillMismatch     = "skill_mismatch"
	ReasonFeedbackExists    = "feedback_exists"
	ReasonConcurrentUpdate  = "concurrent_update"
)

type AppError struct {
	Code       ErrorCode
	Reason     string
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и причине, чтобы errors.Is работал с эталонными значениями.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Conflict создаёт ошибку нарушения guard-условия с указанием причины.
func Conflict(reason, message string) *AppError {
	return &AppError{
		Code:       ErrCodeConflict,
		Reason:     reason,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// Persistence оборачивает сбой хранилища. Такие ошибки клиент может повторить.
func Persistence(err error, message string) *AppError {
	return Wrap(err, ErrCodePersistence, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsRetryable сообщает, можно ли повторить операцию без изменения входных данных.
func IsRetryable(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// ReasonOf возвращает причину конфликта или пустую строку.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

var (
	ErrSwapNotFound         = New(ErrCodeNotFound, "обмен не найден")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrProviderUnavailable  = New(ErrCodeNotFound, "получатель не найден или неактивен")
	ErrNotificationNotFound = New(ErrCodeNotFound, "уведомление не найдено")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrNotSwapParty         = New(ErrCodeForbidden, "вы не участник этого обмена")
	ErrNotProvider          = New(ErrCodeForbidden, "ответить на запрос может только получатель")
	ErrInactiveAccount      = New(ErrCodeForbidden, "аккаунт неактивен")
)
