package bot

// Single source of truth for the order options and their pricing.
// Codes are what the customer types; labels are what they see.

const RestartToken = "0"

const OrderNumberLength = 6

type Option struct {
	Code  string
	Label string
	Price float64
}

var (
	SizeOptions = []Option{
		{Code: "1", Label: "S", Price: 0.2},
		{Code: "2", Label: "M", Price: 0.3},
		{Code: "3", Label: "L", Price: 0.4},
		{Code: "4", Label: "XL", Price: 0.5},
	}

	// The label doubles as the per-pack unit count.
	AmountOptions = []Option{
		{Code: "1", Label: "12", Price: 6},
		{Code: "2", Label: "30", Price: 15},
	}

	PackOptions = []Option{
		{Code: "1", Label: "ארוז", Price: 1},
		{Code: "2", Label: "לא ארוז", Price: 0.5},
	}

	TypeOptions = []Option{
		{Code: "1", Label: "אומגה 3", Price: 1.5},
		{Code: "2", Label: "חופש", Price: 1.2},
		{Code: "3", Label: "אורגני", Price: 1.2},
		{Code: "4", Label: "רגיל", Price: 0.7},
	}
)

func findOption(options []Option, code string) (Option, bool) {
	for _, opt := range options {
		if opt.Code == code {
			return opt, true
		}
	}
	return Option{}, false
}

// stageMessages maps a CRM opportunity stage to the customer-facing
// status text for the inquiry flow.
var stageMessages = map[string]string{
	"Accepted":  "ההזמנה אושרה ותישלח בקרוב!",
	"Delivery":  "ההזמנה במשלוח והיא כבר בדרך!",
	"Delivered": "ההזמנה הגיעה ליעדה בהצלחה :) במידה ויש בעיה ניתן לפנות אלינו",
}

const msgStageUnknown = "ההזמנה נמצאה אך לא ניתן לברר את הסטטוס שלה כרגע. אנא נסה שוב מאוחר יותר."

// Operators can move an opportunity to stages the dialog never names;
// those fall back to a generic status line instead of an empty message.
func messageFromStage(stage string) string {
	if msg, ok := stageMessages[stage]; ok {
		return msg
	}
	return msgStageUnknown
}
