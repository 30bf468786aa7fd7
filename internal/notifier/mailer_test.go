package notifier

import (
	"strings"
	"testing"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

func TestRenderAlertBody_EscapesSenderControlledFields(t *testing.T) {
	body := renderAlertBody(domain.TransactionNotification{
		CustomerName:        `Bob <img src=x onerror=alert(1)>`,
		Amount:              "40.00",
		TransactionType:     domain.NotificationTypeCredit,
		Currency:            "USD",
		MaskedAccountNumber: "0XX..67",
		Narration:           `<script>alert(1)</script>`,
		Reference:           `tx-1"><iframe>`,
		DateTime:            "07-Mar-2024 14:05",
		AvailableBalance:    "100.00",
	})

	for _, markup := range []string{"<script>", "<img", "<iframe>"} {
		if strings.Contains(body, markup) {
			t.Fatalf("expected %q to be escaped out of the body, got:\n%s", markup, body)
		}
	}
	if !strings.Contains(body, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("expected the narration to survive as escaped text, got:\n%s", body)
	}
	if !strings.Contains(body, "Bob &lt;img") {
		t.Fatalf("expected the customer name to survive as escaped text, got:\n%s", body)
	}
}

func TestRenderAlertBody_PlainFieldsPassThrough(t *testing.T) {
	body := renderAlertBody(domain.TransactionNotification{
		CustomerName:        "Ada Lovelace",
		Amount:              "40.00",
		TransactionType:     domain.NotificationTypeDebit,
		Currency:            "USD",
		MaskedAccountNumber: "0XX..67",
		Narration:           "Rent",
		Reference:           "tx-1",
		DateTime:            "07-Mar-2024 14:05",
		AvailableBalance:    "60.00",
	})

	for _, want := range []string{"Dear Ada Lovelace", "USD 40.00", "0XX..67", "Narration: Rent", "Reference: tx-1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, body)
		}
	}
}
