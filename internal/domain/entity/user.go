package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

// User - представление пользователя из справочника. Движок обменов его только читает.
type User struct {
	ID            uuid.UUID
	Name          string
	Role          string
	IsActive      bool
	SkillsOffered []string
	SkillsWanted  []string
	RatingAverage float64
	RatingCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) Offers(skill string) bool {
	return valueobject.ContainsSkill(u.SkillsOffered, skill)
}

func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Пользователь"
	}
	return u.Name
}
