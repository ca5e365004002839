package bot

import (
	"fmt"
	"strings"
)

// Customer-facing texts. The operator runs a Hebrew-only store; these are
// fixed, not localized.
const (
	msgChoiceInvalid      = "אפשרות לא תקינה. אנא הכנס 1 לברר הזמנה קיימת או 2 לבצע הזמנה חדשה."
	msgAskOrderNumber     = "אנא הכנס את מספר ההזמנה שלך או לחץ 0 לחזרה לתפריט הראשי."
	msgOrderNumberInvalid = "מספר הזמנה לא תקין. אנא נסה שוב או לחץ 0 לחזרה לתפריט הראשי."
	msgAskName            = "על שם מי ההזמנה?\n0. חזרה לתפריט הראשי."
	msgNameInvalid        = "שם לא תקין. אנא הכנס שם ללא מספרים."
	msgAskPackQuantity    = "כמה תבניות תרצה?\n0. חזרה לתפריט הראשי."
	msgPackQtyInvalid     = "אנא הכנס מספר תבניות תקין (מספר שלם חיובי). או לחץ 0 לחזרה לתפריט הראשי."
	msgAddressInvalid     = "פורמט לא תקין. אנא הכנס כתובת תקינה (דוגמה: סמולנסקין 9 ירושלים)."
	msgOptionInvalid      = "תשובה לא תקינה. אנא הכנס את מספר האופציה הרלוונטי בלבד."

	questionSize   = "איזה גודל יחידה תרצה?"
	questionAmount = "כמה יחידות תרצה?"
	questionPack   = "ארוז או לא ארוז?"
	questionType   = "איזה סוג תרצה?"

	optionsFooter = "0. חזרה להתחלה"
)

func welcomeMessage(storeName string) string {
	return fmt.Sprintf(
		"ברוך הבא ל%s! נשמח לעמוד לשירותכם עם המשק האיכותי במדינה!\n"+
			"האם אתה כותב לברר לגבי הזמנה קיימת או מעוניין לבצע הזמנה חדשה?\n"+
			"1. לברר לגבי הזמנה קיימת\n"+
			"2. לבצע הזמנה חדשה",
		storeName)
}

// renderQuestion formats a multiple-choice prompt: the question, one
// numbered option per line, and the fixed return-to-start footer.
func renderQuestion(question string, options []Option) string {
	var sb strings.Builder
	sb.WriteString(question)
	for _, opt := range options {
		sb.WriteString(fmt.Sprintf("\n%s. %s", opt.Code, opt.Label))
	}
	sb.WriteString("\n" + optionsFooter)
	return sb.String()
}

func priceAndAddressMessage(total float64) string {
	return fmt.Sprintf(
		"תודה רבה על ההזמנה! המחיר הכולל יהיה: %.2f שקלים"+
			" אנא הכנס את הכתובת למשלוח (דוגמה: סמולנסקין 9 ירושלים)",
		total)
}

func confirmationMessage(name string, total float64, address, orderNumber string) string {
	return fmt.Sprintf(
		"תודה רבה על ההזמנה %s! המחיר הכולל יהיה: %.2f שקלים"+
			". ההזמנה תישלח לכתובת: %s."+
			"מספר ההזמנה: %s",
		name, total, address, orderNumber)
}

// opportunityDescription is the operator-readable selection summary stored
// on the CRM opportunity.
func opportunityDescription(s *Session) string {
	typeLabel, _ := findOption(TypeOptions, s.Type)
	sizeLabel, _ := findOption(SizeOptions, s.Size)
	amountLabel, _ := findOption(AmountOptions, s.Amount)

	packed := "לא ארוז"
	if s.Pack == "1" {
		packed = "ארוז"
	}

	return fmt.Sprintf("פרטי הזמנה: סוג: %s, גודל: %s, כמות: %s, אריזה: %s, מספר חבילות: %d",
		typeLabel.Label, sizeLabel.Label, amountLabel.Label, packed, s.PackQuantity)
}
