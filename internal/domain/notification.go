package domain

import "time"

// Notification template selectors and leg types as the mail templates expect them.
const (
	NotificationTemplateTransaction = "transaction"
	NotificationTypeCredit          = "CREDIT"
	NotificationTypeDebit           = "DEBIT"
)

// TransactionNotification is the payload enqueued for the notification
// dispatcher, one per written transfer leg. All monetary fields are
// pre-formatted strings because the dispatcher renders them verbatim into the
// alert template. Enqueue is fire and forget; delivery failures never reach
// the transfer path.
type TransactionNotification struct {
	Email               string `json:"email"`
	CustomerName        string `json:"customer_name"`
	Amount              string `json:"amount"`
	TransactionType     string `json:"transaction_type"`
	Currency            string `json:"currency"`
	MaskedAccountNumber string `json:"maskedAccountNumber"`
	AccountNumber       string `json:"accountNumber"`
	Narration           string `json:"narration"`
	Reference           string `json:"reference"`
	DateTime            string `json:"dateTime"`
	AvailableBalance    string `json:"availableBalance"`
	Template            string `json:"template"`
	Status              string `json:"status"`
}

// NotificationTimeFormat matches the "02-Jan-2006 15:04" stamp the alert
// template displays.
const NotificationTimeFormat = "02-Jan-2006 15:04"

// FormatNotificationTime renders a timestamp for the alert template.
func FormatNotificationTime(t time.Time) string {
	return t.Format(NotificationTimeFormat)
}

// MaskAccountNumber redacts an account number for display: first character,
// a literal ellipsis, and the last two characters ("001031234567" ->
// "0XX..67"). Accounts shorter than six characters are left unmasked.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) < 6 {
		return accountNumber
	}
	return accountNumber[:1] + "XX.." + accountNumber[len(accountNumber)-2:]
}
