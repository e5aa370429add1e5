// Package reconcile merges the two write paths of the visible message view:
// local optimistic sends and server-originated facts (REST acks, push echoes,
// receipts). All functions are pure over the input slice so the merge rules
// can be tested without any transport or store in place.
//
// Identity rule: a message is keyed by its server-assigned ID once one is
// known, and by its client-assigned TempID only until then.
package reconcile

import (
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// ReceiptKind selects which receipt set a receipt applies to.
type ReceiptKind int

const (
	ReceiptDelivered ReceiptKind = iota
	ReceiptRead
)

// Result is the outcome of applying a server-originated fact.
type Result struct {
	View    []*types.Message
	Changed bool
	// Refetch is set when the incoming fact could not be trusted (missing
	// resolved sender) and the caller must re-pull the room's message page.
	Refetch bool
}

// AppendOptimistic adds a locally sent, unconfirmed message to the view.
// The entry must carry a TempID and is marked Pending.
func AppendOptimistic(view []*types.Message, msg *types.Message) []*types.Message {
	msg.Pending = true
	return append(copyView(view), msg)
}

// RemoveOptimistic drops a pending entry after its originating REST call
// failed. Removing an unknown TempID is a no-op.
func RemoveOptimistic(view []*types.Message, tempID string) ([]*types.Message, bool) {
	for i, m := range view {
		if m.Pending && m.TempID == tempID {
			out := copyView(view)
			return append(out[:i], out[i+1:]...), true
		}
	}
	return view, false
}

// ApplyAck reconciles the REST response for a send with the optimistic entry
// it originated from. The confirmed message replaces the optimistic entry in
// place; if the push echo already inserted the server-assigned ID the
// optimistic entry is dropped instead, so the message never appears twice.
// A confirmation without a resolved sender is not trusted: the optimistic
// entry is discarded and a refetch is requested.
func ApplyAck(view []*types.Message, tempID string, confirmed *types.Message) Result {
	if !confirmed.HasResolvedSender() {
		out, removed := RemoveOptimistic(view, tempID)
		return Result{View: out, Changed: removed, Refetch: true}
	}

	echoed := indexOfID(view, confirmed.ID) >= 0

	out := copyView(view)
	for i, m := range out {
		if m.Pending && m.TempID == tempID {
			if echoed {
				out = append(out[:i], out[i+1:]...)
				return Result{View: out, Changed: true}
			}
			c := *confirmed
			c.TempID = tempID
			c.Pending = false
			out[i] = &c
			return Result{View: out, Changed: true}
		}
	}

	// Optimistic entry already gone (room switched or rolled back). Insert
	// the confirmation only if the echo has not already done so.
	if echoed {
		return Result{View: view}
	}
	c := *confirmed
	c.Pending = false
	return Result{View: append(out, &c), Changed: true}
}

// ApplyPush merges a pushed new_message event. Re-delivery of a known ID is
// an idempotent receipt merge; a message without a resolved sender is never
// inserted and requests a refetch instead.
func ApplyPush(view []*types.Message, msg *types.Message) Result {
	if !msg.HasResolvedSender() {
		return Result{View: view, Refetch: true}
	}

	if i := indexOfID(view, msg.ID); i >= 0 {
		out := copyView(view)
		merged := *out[i]
		changedRead := unionInto(&merged.ReadBy, msg.ReadBy)
		changedDel := unionInto(&merged.DeliveredTo, msg.DeliveredTo)
		if !changedRead && !changedDel {
			return Result{View: view}
		}
		out[i] = &merged
		return Result{View: out, Changed: true}
	}

	m := *msg
	m.Pending = false
	return Result{View: append(copyView(view), &m), Changed: true}
}

// ApplyReceipt unions a delivery or read receipt into the matching message.
// Receipts for unknown messages and repeated receipts are no-ops.
func ApplyReceipt(view []*types.Message, messageID, userID string, kind ReceiptKind) Result {
	i := indexOfID(view, messageID)
	if i < 0 {
		return Result{View: view}
	}

	out := copyView(view)
	merged := *out[i]
	var changed bool
	switch kind {
	case ReceiptDelivered:
		changed = unionInto(&merged.DeliveredTo, []string{userID})
	case ReceiptRead:
		changed = unionInto(&merged.ReadBy, []string{userID})
	}
	if !changed {
		return Result{View: view}
	}
	out[i] = &merged
	return Result{View: out, Changed: true}
}

// indexOfID finds a message by server-assigned ID. Pending entries have no
// server ID yet and never match.
func indexOfID(view []*types.Message, id string) int {
	if id == "" {
		return -1
	}
	for i, m := range view {
		if !m.Pending && m.ID == id {
			return i
		}
	}
	return -1
}

// unionInto adds ids into the set slice, preserving order of first sight.
func unionInto(set *[]string, ids []string) bool {
	changed := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		found := false
		for _, existing := range *set {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			*set = append(*set, id)
			changed = true
		}
	}
	return changed
}

func copyView(view []*types.Message) []*types.Message {
	out := make([]*types.Message, len(view))
	copy(out, view)
	return out
}
