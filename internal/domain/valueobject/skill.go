package valueobject

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	MaxSkillNameLength        = 50
	MaxSkillDescriptionLength = 500
)

// Skill - навык, участвующий в обмене. Имя хранится в том виде, в каком его ввёл
// пользователь, ключ используется для точного сравнения.
type Skill struct {
	Name        string
	Description string
}

func NewSkill(name, description string) (Skill, error) {
	name = collapseSpaces(name)
	if name == "" {
		return Skill{}, apperror.New(apperror.ErrCodeValidation, "название навыка обязательно")
	}
	if utf8.RuneCountInString(name) > MaxSkillNameLength {
		return Skill{}, apperror.New(apperror.ErrCodeValidation, "название навыка слишком длинное")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxSkillDescriptionLength {
		return Skill{}, apperror.New(apperror.ErrCodeValidation, "описание навыка слишком длинное")
	}
	return Skill{Name: name, Description: description}, nil
}

func (s Skill) Key() string {
	return SkillKey(s.Name)
}

// SkillKey приводит название навыка к канонической форме: NFC, схлопнутые пробелы,
// Unicode case folding. "  JavaScript " и "javascript" дают один ключ.
func SkillKey(name string) string {
	folder := cases.Fold()
	return folder.String(norm.NFC.String(collapseSpaces(name)))
}

// ContainsSkill проверяет, есть ли навык в списке с учётом канонической формы.
func ContainsSkill(skills []string, name string) bool {
	key := SkillKey(name)
	if key == "" {
		return false
	}
	for _, s := range skills {
		if SkillKey(s) == key {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
