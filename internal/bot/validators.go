package bot

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ValidateName accepts any text without digits.
func ValidateName(name string) bool {
	for _, r := range name {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidateAddress requires at least one Hebrew letter (the street name)
// and at least one digit (the house number).
func ValidateAddress(address string) bool {
	hasHebrew := false
	hasDigit := false
	for _, r := range address {
		if r >= 0x0590 && r <= 0x05FF {
			hasHebrew = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	return hasHebrew && hasDigit
}

// GenerateOrderNumber returns a 6-character code from A-Z and 0-9.
// Uniqueness is checked against the CRM before finalization.
func GenerateOrderNumber() string {
	var sb strings.Builder
	for i := 0; i < OrderNumberLength; i++ {
		sb.WriteByte(orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))])
	}
	return sb.String()
}

// NormalizePhone converts a WhatsApp sender ID ("9725...") to E.164.
// CRM accounts are keyed by this form. Falls back to "+"+digits when the
// number does not parse.
func NormalizePhone(senderID string) string {
	trimmed := strings.TrimSpace(senderID)
	if i := strings.IndexByte(trimmed, '@'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if !strings.HasPrefix(trimmed, "+") {
		trimmed = "+" + trimmed
	}

	number, err := phonenumbers.Parse(trimmed, "IL")
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
