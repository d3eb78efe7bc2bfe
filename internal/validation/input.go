package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

// Константы валидации пользовательского текста
const (
	MinMessageLength = 1
	MaxMessageLength = 1000
	MaxReasonLength  = 500
	MaxCommentLength = 500
)

// ValidateLength проверяет длину строки в символах. min или max, равные нулю, не проверяются.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		if length == 0 {
			return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s обязательно", fieldName))
		}
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s должно быть не менее %d символов", fieldName, min))
	}
	if max > 0 && length > max {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s должно быть не более %d символов", fieldName, max))
	}
	return nil
}

// NormalizeText обрезает пробелы по краям и убирает управляющие символы,
// кроме переводов строк и табуляции.
func NormalizeText(value string) string {
	value = strings.TrimSpace(value)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}

// ValidateText нормализует текст и проверяет его длину. Возвращает нормализованное значение.
func ValidateText(fieldName, value string, required bool, max int) (string, error) {
	value = NormalizeText(value)
	min := 0
	if required {
		min = MinMessageLength
	}
	if err := ValidateLength(fieldName, value, min, max); err != nil {
		return "", err
	}
	return value, nil
}
