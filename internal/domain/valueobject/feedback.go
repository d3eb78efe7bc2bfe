package valueobject

import (
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	MinRating                = 1
	MaxRating                = 5
	MaxFeedbackCommentLength = 500
)

type Rating int

func NewRating(v int) (Rating, error) {
	if v < MinRating || v > MaxRating {
		return 0, apperror.New(apperror.ErrCodeValidation, "рейтинг должен быть от 1 до 5")
	}
	return Rating(v), nil
}

func (r Rating) Int() int {
	return int(r)
}

func NewFeedbackComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxFeedbackCommentLength {
		return "", apperror.New(apperror.ErrCodeValidation, "комментарий не может быть длиннее 500 символов")
	}
	return comment, nil
}
