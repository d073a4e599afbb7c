// Package syncer replays optimistic cart mutations against the backend. Every mutation made by an
// authenticated session is queued as a PendingOp; the Worker sends them in order per session, retries
// transient failures with backoff and records the outcome on the line item.
package syncer

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/state"
)

type Kind string

const (
	KindAdd    Kind = "add"
	KindUpdate Kind = "update"
	KindRemove Kind = "remove"
	KindClear  Kind = "clear"
)

// PendingOp is one queued cart mutation. ID doubles as the Idempotency-Key sent to the backend,
// so retries of the same op are recognised as duplicates.
type PendingOp struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"sessionId"`
	Kind          Kind           `json:"kind"`
	ItemID        string         `json:"itemId,omitempty"`
	ServerItemID  string         `json:"serverItemId,omitempty"`
	ItemType      state.ItemType `json:"itemType,omitempty"`
	ProductID     string         `json:"productId,omitempty"`
	ServiceID     string         `json:"serviceId,omitempty"`
	Quantity      int            `json:"quantity,omitempty"`
	Attempts      int            `json:"attempts"`
	NextAttemptAt time.Time      `json:"nextAttemptAt"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (op PendingOp) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", op.ID).
		Str("kind", string(op.Kind)).
		Str("itemId", op.ItemID).
		Int("quantity", op.Quantity).
		Int("attempts", op.Attempts)
}

func newOp(sessionID string, kind Kind, now time.Time) PendingOp {
	return PendingOp{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Kind:          kind,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

// AddOp adds one unit of item on the backend.
func AddOp(sessionID string, item state.LineItem, now time.Time) PendingOp {
	op := newOp(sessionID, KindAdd, now)
	op.ItemID = item.ID
	op.ItemType = item.Type
	op.ProductID = item.ProductID
	op.ServiceID = item.ServiceID
	op.Quantity = 1
	return op
}

func UpdateOp(sessionID string, item state.LineItem, quantity int, now time.Time) PendingOp {
	op := newOp(sessionID, KindUpdate, now)
	op.ItemID = item.ID
	op.ServerItemID = item.ServerID
	op.ItemType = item.Type
	op.Quantity = quantity
	return op
}

func RemoveOp(sessionID string, item state.LineItem, now time.Time) PendingOp {
	op := newOp(sessionID, KindRemove, now)
	op.ItemID = item.ID
	op.ServerItemID = item.ServerID
	op.ItemType = item.Type
	return op
}

func ClearOp(sessionID string, now time.Time) PendingOp {
	return newOp(sessionID, KindClear, now)
}

// Backoff doubles from base on every attempt and is capped at max.
func Backoff(base time.Duration, attempts int, max time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return min(d, max)
}
