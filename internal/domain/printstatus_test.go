package domain

import "testing"

func ptr(s PrintStatus) *PrintStatus { return &s }

func TestPrintStatus_Valid(t *testing.T) {
	for _, s := range []PrintStatus{PrintStatusPending, PrintStatusSentToPOS, PrintStatusPrinted, PrintStatusFailed} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	for _, s := range []PrintStatus{"", "done", "PENDING", "retrying"} {
		if s.Valid() {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestCanTransition_NormalProgression(t *testing.T) {
	if !CanTransition(ptr(PrintStatusPending), PrintStatusSentToPOS) {
		t.Fatalf("pending → sent_to_pos should be allowed")
	}
	if !CanTransition(ptr(PrintStatusSentToPOS), PrintStatusPrinted) {
		t.Fatalf("sent_to_pos → printed should be allowed")
	}
	// Pull-delivered orders may be confirmed without passing through sent_to_pos.
	if !CanTransition(ptr(PrintStatusPending), PrintStatusPrinted) {
		t.Fatalf("pending → printed should be allowed")
	}
}

func TestCanTransition_NilFromIsPending(t *testing.T) {
	if !CanTransition(nil, PrintStatusSentToPOS) {
		t.Fatalf("nil → sent_to_pos should be allowed")
	}
	if !CanTransition(nil, PrintStatusFailed) {
		t.Fatalf("nil → failed should be allowed")
	}
	if !CanTransition(nil, PrintStatusPending) {
		t.Fatalf("nil → pending is a self-transition and should be allowed")
	}
}

func TestCanTransition_PrintedIsTerminal(t *testing.T) {
	for _, to := range []PrintStatus{PrintStatusPending, PrintStatusSentToPOS, PrintStatusFailed} {
		if CanTransition(ptr(PrintStatusPrinted), to) {
			t.Fatalf("printed → %s should be rejected", to)
		}
	}
	if !CanTransition(ptr(PrintStatusPrinted), PrintStatusPrinted) {
		t.Fatalf("printed → printed (re-confirmation) should be a no-op, not an error")
	}
}

func TestCanTransition_FailedRetries(t *testing.T) {
	if !CanTransition(ptr(PrintStatusFailed), PrintStatusPending) {
		t.Fatalf("failed → pending (retry) should be allowed")
	}
	if !CanTransition(ptr(PrintStatusFailed), PrintStatusSentToPOS) {
		t.Fatalf("failed → sent_to_pos (retry) should be allowed")
	}
	if CanTransition(ptr(PrintStatusFailed), PrintStatusPrinted) {
		t.Fatalf("failed → printed should be rejected; a retry must pass through the queue first")
	}
}

func TestCanTransition_FailedFromAnyNonTerminal(t *testing.T) {
	for _, from := range []*PrintStatus{nil, ptr(PrintStatusPending), ptr(PrintStatusSentToPOS)} {
		if !CanTransition(from, PrintStatusFailed) {
			t.Fatalf("→ failed should be allowed from %v", from)
		}
	}
}

func TestCanTransition_SelfTransitions(t *testing.T) {
	for _, s := range []PrintStatus{PrintStatusPending, PrintStatusSentToPOS, PrintStatusPrinted, PrintStatusFailed} {
		if !CanTransition(ptr(s), s) {
			t.Fatalf("%s → %s should be allowed", s, s)
		}
	}
}

func TestCanTransition_UnknownTarget(t *testing.T) {
	if CanTransition(ptr(PrintStatusPending), "done") {
		t.Fatalf("unknown target status should be rejected")
	}
}
