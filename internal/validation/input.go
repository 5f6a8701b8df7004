package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinFullNameLength = 2
	MaxFullNameLength = 100

	MinLocationLength = 3
	MaxLocationLength = 300

	MaxDescriptionLength  = 5000
	MaxCancelReasonLength = 1000
	MaxBioLength          = 1000
	MaxSkillLength        = 50
	MaxSkillsCount        = 50

	MinBudget = 0.0
	MaxBudget = 100000000.0 // 100 миллионов

	MinDurationHours = 0.5
	MaxDurationHours = 24.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateFullName проверяет полное имя артиста.
func ValidateFullName(fullName string) error {
	if fullName == "" {
		return fmt.Errorf("полное имя обязательно")
	}

	fullName = strings.TrimSpace(fullName)

	if err := ValidateLength("полное имя", fullName, MinFullNameLength, MaxFullNameLength); err != nil {
		return err
	}

	fullNameRegex := regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
	if !fullNameRegex.MatchString(fullName) {
		return fmt.Errorf("полное имя содержит недопустимые символы")
	}

	return nil
}

// ValidateBudget проверяет сумму бюджета.
func ValidateBudget(amount float64) error {
	if amount <= MinBudget {
		return fmt.Errorf("бюджет должен быть положительным")
	}
	if amount > MaxBudget {
		return fmt.Errorf("бюджет не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateDuration проверяет длительность выступления в часах.
func ValidateDuration(hours float64) error {
	if hours < MinDurationHours {
		return fmt.Errorf("длительность должна быть не менее %.1f часа", MinDurationHours)
	}
	if hours > MaxDurationHours {
		return fmt.Errorf("длительность не может превышать %.0f часа", MaxDurationHours)
	}
	return nil
}

// eventTimeRegex формат времени события HH:MM, 24 часа.
var eventTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateEventTime проверяет время события в формате HH:MM.
func ValidateEventTime(eventTime string) error {
	if eventTime == "" {
		return fmt.Errorf("время события обязательно")
	}
	if !eventTimeRegex.MatchString(eventTime) {
		return fmt.Errorf("время события должно быть в формате HH:MM")
	}
	return nil
}

// ValidateEventDate проверяет, что дата события не в прошлом.
func ValidateEventDate(eventDate time.Time) error {
	if eventDate.IsZero() {
		return fmt.Errorf("дата события обязательна")
	}
	if eventDate.Before(time.Now().Truncate(24 * time.Hour)) {
		return fmt.Errorf("дата события не может быть в прошлом")
	}
	return nil
}

// ValidateSkills проверяет массив навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("количество навыков не может превышать %d", MaxSkillsCount)
	}

	for _, skill := range skills {
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
	}

	return nil
}
