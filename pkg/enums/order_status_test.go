package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) returned error: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %q got %q", status, got)
		}
	}

	if _, err := ParseOrderStatus("delivered"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusPending:    false,
		OrderStatusProcessing: false,
		OrderStatusReady:      false,
		OrderStatusCompleted:  true,
		OrderStatusRejected:   true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestOrderEventForStatus(t *testing.T) {
	event, ok := OrderEventForStatus(OrderStatusReady)
	if !ok || event != OrderEventReady {
		t.Fatalf("expected order.ready, got %q (%v)", event, ok)
	}
	if _, ok := OrderEventForStatus(OrderStatus("unknown")); ok {
		t.Fatal("expected unknown status to have no event")
	}
}

func TestParseDiscountModeIsCaseInsensitive(t *testing.T) {
	mode, err := ParseDiscountMode("PERCENT")
	if err != nil {
		t.Fatalf("ParseDiscountMode returned error: %v", err)
	}
	if mode != DiscountModePercent {
		t.Fatalf("expected percent, got %q", mode)
	}
	if _, err := ParseDiscountMode("bogo"); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}
