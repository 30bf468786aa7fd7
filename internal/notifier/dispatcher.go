/**
 * @description
 * The notification dispatcher consumes transaction alert payloads from the
 * queue and delivers them by email, at least once. Delivery retries with
 * exponential backoff up to a bounded attempt count live here, decoupled from
 * the transfer path: the engine only enqueues and a failed delivery never
 * reverses a committed transfer.
 */

package notifier

import (
	"encoding/json"
	"log"
	"time"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

// Delivery retry policy: maxAttempts tries with exponential backoff starting
// at baseBackoff, capped at maxBackoff.
const (
	defaultMaxAttempts = 5
	baseBackoff        = 2 * time.Second
	maxBackoff         = 10 * time.Minute
)

// Dispatcher turns queued alert payloads into email deliveries.
type Dispatcher struct {
	sender      Sender
	maxAttempts int
	sleep       func(time.Duration)
}

// NewDispatcher creates a dispatcher delivering through the given sender.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		maxAttempts: defaultMaxAttempts,
		sleep:       time.Sleep,
	}
}

// HandleMessage processes one queued alert. It always returns true so that
// the delivery is acked: retries are handled internally, and after the
// attempt budget is exhausted the alert is dropped with an error log rather
// than poisoning the queue.
func (d *Dispatcher) HandleMessage(body []byte) bool {
	var payload domain.TransactionNotification
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("level=error component=notification_dispatcher msg=\"malformed alert payload; dropping\" err=%v", err)
		return true
	}
	if payload.Email == "" {
		log.Printf("level=error component=notification_dispatcher msg=\"alert payload missing recipient; dropping\" reference=%s", payload.Reference)
		return true
	}

	backoff := baseBackoff
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.sender.Send(payload)
		if err == nil {
			log.Printf("level=info component=notification_dispatcher msg=\"alert delivered\" reference=%s type=%s attempt=%d",
				payload.Reference, payload.TransactionType, attempt)
			return true
		}

		log.Printf("level=warn component=notification_dispatcher msg=\"alert delivery failed\" reference=%s attempt=%d err=%v",
			payload.Reference, attempt, err)
		if attempt == d.maxAttempts {
			break
		}
		d.sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	log.Printf("level=error component=notification_dispatcher msg=\"alert dropped after retries\" reference=%s account=%s",
		payload.Reference, payload.MaskedAccountNumber)
	return true
}
