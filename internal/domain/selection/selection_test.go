package selection

import (
	"math/big"
	"testing"
)

func validAttestation(price int64) Attestation {
	return Attestation{
		ID:        "att-1",
		Payload:   []byte{0x01},
		Timestamp: 1700000000,
		Signature: []byte{0x02},
		Price:     big.NewInt(price),
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int
		want     string
	}{
		{name: "whole number", input: "2", decimals: 18, want: "2000000000000000000"},
		{name: "fraction", input: "0.5", decimals: 18, want: "500000000000000000"},
		{name: "leading dot", input: ".5", decimals: 18, want: "500000000000000000"},
		{name: "bare dot reads as zero", input: ".", decimals: 18, want: "0"},
		{name: "empty", input: "", decimals: 18, want: "0"},
		{name: "garbage coerces to zero", input: "abc", decimals: 18, want: "0"},
		{name: "negative coerces to zero", input: "-1", decimals: 18, want: "0"},
		{name: "double dot coerces to zero", input: "1.2.3", decimals: 18, want: "0"},
		{name: "excess precision truncated", input: "1.123456789", decimals: 6, want: "1123456"},
		{name: "six decimal asset", input: "3.5", decimals: 6, want: "3500000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.input, tt.decimals)
			if got.String() != tt.want {
				t.Fatalf("ParseAmount(%q, %d) = %s, want %s", tt.input, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestToggleNFTPairsRestorePriorState(t *testing.T) {
	b := NewBuilder()
	b.SetETH(big.NewInt(100))

	att := validAttestation(500)
	if !b.ToggleNFT("0xNFT", big.NewInt(1), att) {
		t.Fatal("first toggle should select")
	}
	if !b.ToggleNFT("0xNFT", big.NewInt(1), att) {
		t.Fatal("second toggle should deselect")
	}

	snap := b.Snapshot()
	if len(snap) != 1 || snap[0].Contract != ETHKey {
		t.Fatalf("double toggle must restore prior state, got %+v", snap)
	}
}

func TestToggleNFTWithoutAttestationRefused(t *testing.T) {
	b := NewBuilder()
	if b.ToggleNFT("0xNFT", big.NewInt(1), Attestation{}) {
		t.Fatal("toggle without attestation must be refused")
	}
	if b.Len() != 0 {
		t.Fatalf("selection must be unchanged, got %d entries", b.Len())
	}

	// Deselection needs no attestation.
	if !b.ToggleNFT("0xNFT", big.NewInt(1), validAttestation(500)) {
		t.Fatal("valid toggle should select")
	}
	if !b.ToggleNFT("0xNFT", big.NewInt(1), Attestation{}) {
		t.Fatal("deselect should succeed without attestation")
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty selection, got %d entries", b.Len())
	}
}

func TestContractKeyHoldsOneShape(t *testing.T) {
	b := NewBuilder()

	b.AddFungible("0xToken", big.NewInt(100))
	if b.ToggleNFT("0xToken", big.NewInt(1), validAttestation(500)) {
		t.Fatal("nft toggle on a fungible entry must be refused")
	}
	snap := b.Snapshot()
	if len(snap) != 1 || !snap[0].Fungible || len(snap[0].TokenIDs) != 0 {
		t.Fatalf("fungible entry must be unchanged, got %+v", snap[0])
	}
	if snap[0].Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("amount = %s, want 100", snap[0].Amount)
	}

	b.Clear()
	if !b.ToggleNFT("0xToken", big.NewInt(1), validAttestation(500)) {
		t.Fatal("toggle should select")
	}
	b.AddFungible("0xToken", big.NewInt(100))
	snap = b.Snapshot()
	if len(snap) != 1 || snap[0].Fungible || snap[0].Amount != nil {
		t.Fatalf("nft entry must not grow an amount, got %+v", snap[0])
	}
}

func TestTotalValueAndEntries(t *testing.T) {
	b := NewBuilder()
	b.SetETH(big.NewInt(150))
	b.AddFungible("0xWETH", big.NewInt(100))
	b.ToggleNFT("0xNFT", big.NewInt(7), validAttestation(50))

	rates := map[string]*big.Rat{"0xweth": big.NewRat(1, 1)}
	total := b.TotalValue(rates)
	if total.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("total = %s, want 300", total)
	}

	// 250 of value at 100 per entry buys exactly 2 entries.
	b2 := NewBuilder()
	b2.SetETH(big.NewInt(250))
	if got := b2.Entries(big.NewInt(100), nil); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}

	// Fungible without a known rate contributes nothing.
	b3 := NewBuilder()
	b3.AddFungible("0xUNKNOWN", big.NewInt(1000))
	if got := b3.TotalValue(nil); got.Sign() != 0 {
		t.Fatalf("unrated fungible should not contribute, got %s", got)
	}
}

func TestBuilderOrderingAndClear(t *testing.T) {
	b := NewBuilder()
	b.AddFungible("0xAAA", big.NewInt(1))
	b.SetETH(big.NewInt(2))
	b.AddFungible("0xaaa", big.NewInt(4))

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	if snap[0].Contract != "0xaaa" || snap[0].Amount.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("case-insensitive contracts must merge, got %+v", snap[0])
	}

	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("expected empty builder after clear, got %d", b.Len())
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	b := NewBuilder()
	b.SetETH(big.NewInt(10))

	snap := b.Snapshot()
	snap[0].Amount.SetInt64(999)

	if got := b.Snapshot()[0].Amount; got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("snapshot mutation leaked into builder: %s", got)
	}
}
