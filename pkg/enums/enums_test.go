package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" Processing ")
	if err != nil || got != OrderStatusProcessing {
		t.Fatalf("expected processing, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusPending:    false,
		OrderStatusProcessing: false,
		OrderStatusCompleted:  true,
		OrderStatusCancelled:  true,
	}
	for status, want := range terminal {
		if status.IsTerminal() != want {
			t.Fatalf("%s: expected terminal=%v", status, want)
		}
	}
	if len(OrderStatuses()) != 4 {
		t.Fatalf("expected four statuses")
	}
}

func TestProductCategoryIsMaterials(t *testing.T) {
	if !ProductCategory("Materials").IsMaterials() {
		t.Fatal("materials should match case-insensitively")
	}
	if ProductCategoryPlanter.IsMaterials() || ProductCategory("").IsMaterials() {
		t.Fatal("non-materials categories are unit items")
	}
}
