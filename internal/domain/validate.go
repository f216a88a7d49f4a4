package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/campus-assistant/internal/textnorm"
)

// ValidatorKind selects the validation applied to a wizard field.
type ValidatorKind string

const (
	ValidateText      ValidatorKind = "text"
	ValidateCPF       ValidatorKind = "cpf"
	ValidateDate      ValidatorKind = "date"
	ValidateEmail     ValidatorKind = "email"
	ValidatePhone     ValidatorKind = "phone"
	ValidateStateCode ValidatorKind = "stateCode"
	ValidatePassword  ValidatorKind = "password"
)

// Valid reports whether k is a known validator.
func (k ValidatorKind) Valid() bool {
	switch k {
	case ValidateText, ValidateCPF, ValidateDate, ValidateEmail, ValidatePhone, ValidateStateCode, ValidatePassword:
		return true
	}
	return false
}

// FieldValidationError is a recoverable rejection of a wizard answer.
type FieldValidationError struct {
	Field  string
	Reason string
}

func (e *FieldValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var dateRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{2}|\d{4})$`)

// ValidateField checks value against kind and returns its canonical form.
func ValidateField(kind ValidatorKind, value string) (string, *FieldValidationError) {
	value = strings.TrimSpace(value)

	switch kind {
	case ValidateCPF:
		digits := textnorm.Digits(value)
		if len(digits) != 11 {
			return "", &FieldValidationError{Reason: "CPF deve ter 11 dígitos. Ex: 123.456.789-01 ou 12345678901"}
		}
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:], nil

	case ValidateDate:
		m := dateRe.FindStringSubmatch(value)
		if m == nil {
			return "", &FieldValidationError{Reason: "Data deve estar no formato DD/MM/AAAA. Ex: 15/03/2000"}
		}
		year := m[3]
		if len(year) == 2 {
			yy, _ := strconv.Atoi(year)
			if yy >= 50 {
				year = "19" + year
			} else {
				year = "20" + year
			}
		}
		t, err := time.Parse("02/01/2006", m[1]+"/"+m[2]+"/"+year)
		if err != nil {
			return "", &FieldValidationError{Reason: "Data inválida. Use o formato DD/MM/AAAA."}
		}
		return t.Format("2006-01-02"), nil

	case ValidateEmail:
		at := strings.Index(value, "@")
		if at < 0 || !strings.Contains(value[at+1:], ".") {
			return "", &FieldValidationError{Reason: "Email inválido. Ex: seu.nome@email.com"}
		}
		return strings.ToLower(value), nil

	case ValidatePhone:
		digits := textnorm.Digits(value)
		if len(digits) < 10 {
			return "", &FieldValidationError{Reason: "Telefone deve ter pelo menos 10 dígitos. Ex: (11) 98765-4321"}
		}
		return digits, nil

	case ValidateStateCode:
		if utf8.RuneCountInString(value) != 2 || strings.IndexFunc(value, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			return "", &FieldValidationError{Reason: "Estado deve ser a sigla com 2 letras. Ex: SP, RJ, MG"}
		}
		return strings.ToUpper(value), nil

	case ValidatePassword:
		if utf8.RuneCountInString(value) < 4 {
			return "", &FieldValidationError{Reason: "Senha deve ter no mínimo 4 caracteres."}
		}
		return value, nil

	default:
		if utf8.RuneCountInString(value) < 2 {
			return "", &FieldValidationError{Reason: "Por favor, forneça um valor válido."}
		}
		return value, nil
	}
}
