package reconcile

import (
	"testing"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

func optimistic(tempID, roomID, body string) *types.Message {
	return &types.Message{
		TempID: tempID,
		RoomID: roomID,
		Sender: &types.UserSummary{ID: "userA", Name: "A"},
		Body:   body,
		Kind:   types.MessageKindText,
	}
}

func confirmed(id, roomID, senderID, body string) *types.Message {
	var sender *types.UserSummary
	if senderID != "" {
		sender = &types.UserSummary{ID: senderID}
	}
	return &types.Message{ID: id, RoomID: roomID, Sender: sender, Body: body, Kind: types.MessageKindText}
}

func countID(view []*types.Message, id string) int {
	n := 0
	for _, m := range view {
		if m.ID == id && !m.Pending {
			n++
		}
	}
	return n
}

func countPending(view []*types.Message) int {
	n := 0
	for _, m := range view {
		if m.Pending {
			n++
		}
	}
	return n
}

func TestAppendOptimistic_MarksPending(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	if len(view) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(view))
	}
	if !view[0].Pending {
		t.Error("optimistic entry should be pending")
	}
}

func TestApplyAck_ReplacesInPlace(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	view = AppendOptimistic(view, optimistic("tmp2", "r1", "world"))

	res := ApplyAck(view, "tmp1", confirmed("m1", "r1", "userA", "hello"))
	if !res.Changed || res.Refetch {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.View) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.View))
	}
	// Position preserved: confirmed message stays first.
	if res.View[0].ID != "m1" || res.View[0].Pending {
		t.Errorf("first entry should be confirmed m1, got %+v", res.View[0])
	}
	if countID(res.View, "m1") != 1 {
		t.Error("confirmed message should appear exactly once")
	}
}

// No-duplicate, no-loss: ack then echo.
func TestSend_AckThenEcho_ExactlyOnce(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))

	res := ApplyAck(view, "tmp1", confirmed("m1", "r1", "userA", "hello"))
	res = ApplyPush(res.View, confirmed("m1", "r1", "userA", "hello"))

	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once, got %d", got)
	}
	if countPending(res.View) != 0 {
		t.Error("no pending entries should remain")
	}
}

// No-duplicate, no-loss: echo then ack.
func TestSend_EchoThenAck_ExactlyOnce(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))

	res := ApplyPush(view, confirmed("m1", "r1", "userA", "hello"))
	res = ApplyAck(res.View, "tmp1", confirmed("m1", "r1", "userA", "hello"))

	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once, got %d", got)
	}
	if countPending(res.View) != 0 {
		t.Error("no pending entries should remain")
	}
}

// No-loss: ack arrives but the echo never does.
func TestSend_AckWithoutEcho_StillVisible(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	res := ApplyAck(view, "tmp1", confirmed("m1", "r1", "userA", "hello"))

	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once, got %d", got)
	}
}

// Sender-integrity: an unconfirmed sender discards the optimistic entry and
// requests exactly one refetch.
func TestApplyAck_UnresolvedSender_DiscardsAndRefetches(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	res := ApplyAck(view, "tmp1", confirmed("m1", "r1", "", "hello"))

	if !res.Refetch {
		t.Error("expected refetch request")
	}
	if len(res.View) != 0 {
		t.Errorf("optimistic entry should be discarded, view has %d entries", len(res.View))
	}
}

func TestApplyPush_UnresolvedSender_NotInserted(t *testing.T) {
	res := ApplyPush(nil, confirmed("m1", "r1", "", "hi"))
	if !res.Refetch {
		t.Error("expected refetch request")
	}
	if len(res.View) != 0 {
		t.Error("malformed message must not be inserted")
	}
}

func TestApplyPush_DuplicateDelivery_Idempotent(t *testing.T) {
	res := ApplyPush(nil, confirmed("m1", "r1", "userB", "hi"))
	res = ApplyPush(res.View, confirmed("m1", "r1", "userB", "hi"))

	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once, got %d", got)
	}
	if res.Changed {
		t.Error("re-delivery with no new facts should report no change")
	}
}

func TestApplyReceipt_Idempotent(t *testing.T) {
	res := ApplyPush(nil, confirmed("m1", "r1", "userB", "hi"))

	first := ApplyReceipt(res.View, "m1", "userC", ReceiptRead)
	if !first.Changed {
		t.Fatal("first receipt should change the view")
	}
	second := ApplyReceipt(first.View, "m1", "userC", ReceiptRead)
	if second.Changed {
		t.Error("repeated receipt should be a no-op")
	}
	if got := len(second.View[0].ReadBy); got != 1 {
		t.Errorf("readBy should hold one id, got %d", got)
	}
}

func TestApplyReceipt_UnknownMessage_NoOp(t *testing.T) {
	res := ApplyReceipt(nil, "missing", "userC", ReceiptDelivered)
	if res.Changed || res.Refetch {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestApplyReceipt_DeliveredAndReadIndependent(t *testing.T) {
	res := ApplyPush(nil, confirmed("m1", "r1", "userB", "hi"))
	res = ApplyReceipt(res.View, "m1", "userC", ReceiptDelivered)
	res = ApplyReceipt(res.View, "m1", "userC", ReceiptRead)

	m := res.View[0]
	if len(m.DeliveredTo) != 1 || len(m.ReadBy) != 1 {
		t.Errorf("expected one id in each set, got deliveredTo=%v readBy=%v", m.DeliveredTo, m.ReadBy)
	}
}

func TestRemoveOptimistic_RollsBackFailedSend(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	out, removed := RemoveOptimistic(view, "tmp1")
	if !removed || len(out) != 0 {
		t.Errorf("expected rollback, removed=%v len=%d", removed, len(out))
	}

	_, removed = RemoveOptimistic(out, "tmp1")
	if removed {
		t.Error("removing an unknown tempID should be a no-op")
	}
}

func TestApplyAck_AfterRollback_InsertsOnce(t *testing.T) {
	// The optimistic entry is gone (room switch cleared it); the late ack
	// still lands exactly once.
	res := ApplyAck(nil, "tmp1", confirmed("m1", "r1", "userA", "hello"))
	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once, got %d", got)
	}

	// And only once even if the echo already arrived.
	withEcho := ApplyPush(nil, confirmed("m1", "r1", "userA", "hello"))
	res = ApplyAck(withEcho.View, "tmp1", confirmed("m1", "r1", "userA", "hello"))
	if got := countID(res.View, "m1"); got != 1 {
		t.Errorf("expected m1 exactly once after echo, got %d", got)
	}
}

func TestApplyPush_MergesReceiptsOnKnownID(t *testing.T) {
	res := ApplyPush(nil, confirmed("m1", "r1", "userB", "hi"))

	update := confirmed("m1", "r1", "userB", "hi")
	update.ReadBy = []string{"userC"}
	res = ApplyPush(res.View, update)

	if !res.Changed {
		t.Fatal("new receipt fact should change the view")
	}
	if len(res.View[0].ReadBy) != 1 || res.View[0].ReadBy[0] != "userC" {
		t.Errorf("readBy not merged: %v", res.View[0].ReadBy)
	}
}

func TestPureFunctions_DoNotMutateInput(t *testing.T) {
	view := AppendOptimistic(nil, optimistic("tmp1", "r1", "hello"))
	before := len(view)

	ApplyAck(view, "tmp1", confirmed("m1", "r1", "userA", "hello"))
	ApplyPush(view, confirmed("m2", "r1", "userB", "yo"))

	if len(view) != before {
		t.Error("input view length changed")
	}
	if !view[0].Pending || view[0].TempID != "tmp1" {
		t.Error("input view entry mutated")
	}
}
