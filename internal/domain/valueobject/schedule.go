package valueobject

import (
	"time"

	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const MaxTimeSlots = 21

var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

type TimeSlot struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Schedule - предложенное расписание занятий. Сервис его только хранит,
// конфликты не разрешаются.
type Schedule struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	TimeSlots []TimeSlot `json:"time_slots,omitempty"`
}

func (s *Schedule) IsEmpty() bool {
	return s == nil || (s.StartDate == nil && s.EndDate == nil && len(s.TimeSlots) == 0)
}

func (s *Schedule) Validate() error {
	if s == nil {
		return nil
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return apperror.New(apperror.ErrCodeValidation, "дата окончания раньше даты начала")
	}
	if len(s.TimeSlots) > MaxTimeSlots {
		return apperror.New(apperror.ErrCodeValidation, "слишком много временных слотов")
	}
	for _, slot := range s.TimeSlots {
		if _, ok := weekdays[slot.Day]; !ok {
			return apperror.New(apperror.ErrCodeValidation, "некорректный день недели: "+slot.Day)
		}
		start, err := time.Parse("15:04", slot.StartTime)
		if err != nil {
			return apperror.New(apperror.ErrCodeValidation, "время начала должно быть в формате HH:MM")
		}
		end, err := time.Parse("15:04", slot.EndTime)
		if err != nil {
			return apperror.New(apperror.ErrCodeValidation, "время окончания должно быть в формате HH:MM")
		}
		if !start.Before(end) {
			return apperror.New(apperror.ErrCodeValidation, "время начала должно быть раньше времени окончания")
		}
	}
	return nil
}
