package ethereum

import (
	"math/big"
	"strings"
	"testing"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
	"github.com/nftearth/fortune/internal/usecase"
)

func TestBuildDepositCalldata(t *testing.T) {
	att := &selection.Attestation{
		ID:        "0x1122",
		Payload:   []byte{0xde, 0xad},
		Timestamp: 1700000000,
		Signature: []byte{0xab},
		Price:     big.NewInt(1e18),
	}

	entries := []usecase.DepositEntry{
		{TokenType: round.TokenETH, AmountsOrIDs: []*big.Int{}},
		{TokenType: round.TokenERC20, TokenAddress: "0xfff", AmountsOrIDs: []*big.Int{big.NewInt(100)}},
		{TokenType: round.TokenERC721, TokenAddress: "0xnft", AmountsOrIDs: []*big.Int{big.NewInt(7)}, Attestation: att},
	}

	calldata, err := buildDepositCalldata(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calldata) != 3 {
		t.Fatalf("len = %d, want 3", len(calldata))
	}

	if calldata[0].TokenType != 0 || calldata[1].TokenType != 1 || calldata[2].TokenType != 2 {
		t.Fatalf("token type codes = %d %d %d", calldata[0].TokenType, calldata[1].TokenType, calldata[2].TokenType)
	}
	if calldata[0].TokenIdsOrAmounts == nil {
		t.Fatal("eth entry must carry an empty slice, not nil")
	}
	if calldata[1].ReservoirOracleFloorPrice.Timestamp.Sign() != 0 {
		t.Fatal("erc20 entry must carry an empty floor price")
	}
	if calldata[2].ReservoirOracleFloorPrice.Timestamp.Int64() != 1700000000 {
		t.Fatalf("timestamp = %s", calldata[2].ReservoirOracleFloorPrice.Timestamp)
	}

	// id bytes are right-aligned into the bytes32 slot
	id := calldata[2].ReservoirOracleFloorPrice.Id
	if id[30] != 0x11 || id[31] != 0x22 {
		t.Fatalf("id tail = %x", id[30:])
	}
	for _, b := range id[:30] {
		if b != 0 {
			t.Fatalf("id not zero padded: %x", id)
		}
	}
}

func TestBuildDepositCalldataRejectsMissingAttestation(t *testing.T) {
	entries := []usecase.DepositEntry{
		{TokenType: round.TokenERC721, TokenAddress: "0xnft", AmountsOrIDs: []*big.Int{big.NewInt(1)}},
	}
	if _, err := buildDepositCalldata(entries); err == nil {
		t.Fatal("expected error for nft entry without attestation")
	}
}

func TestAttestationID(t *testing.T) {
	if _, err := attestationID("0xzz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if _, err := attestationID("0x" + strings.Repeat("ab", 40)); err == nil {
		t.Fatal("expected error for oversized id")
	}
}
