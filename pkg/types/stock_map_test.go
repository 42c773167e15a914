package types

import "testing"

func TestStockMapValueScan(t *testing.T) {
	in := StockMap{"M-Black": 3, "L": 7}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var out StockMap
	if err := out.Scan(raw); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if out["M-Black"] != 3 || out["L"] != 7 || len(out) != 2 {
		t.Fatalf("unexpected round trip %v", out)
	}
}

func TestStockMapScanNil(t *testing.T) {
	out := StockMap{"S": 1}
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil map, got %v", out)
	}
}

func TestStockMapScanRejectsUnknownType(t *testing.T) {
	var out StockMap
	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for int input")
	}
}

func TestAddressSnapshotLines(t *testing.T) {
	addr := AddressSnapshot{
		Name:         "Asha",
		Phone:        "9999999999",
		AddressLine1: "12 MG Road",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	}
	lines := addr.Lines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %v", lines)
	}
	if lines[2] != "Pune, MH 411001" {
		t.Fatalf("unexpected city line %q", lines[2])
	}
}
