package ethereum

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
	"github.com/nftearth/fortune/internal/usecase"
)

// Field names must match the ABI tuple components case-insensitively,
// go-ethereum maps them by upper-casing the first letter.
type reservoirOracleFloorPrice struct {
	Id        [32]byte
	Payload   []byte
	Timestamp *big.Int
	Signature []byte
}

type depositCalldata struct {
	TokenType                 uint8
	TokenAddress              common.Address
	TokenIdsOrAmounts         []*big.Int
	ReservoirOracleFloorPrice reservoirOracleFloorPrice
}

type claimPrizesCalldata struct {
	RoundId      *big.Int
	PrizeIndices []*big.Int
}

var tokenTypeCodes = map[round.TokenType]uint8{
	round.TokenETH:    0,
	round.TokenERC20:  1,
	round.TokenERC721: 2,
}

func buildDepositCalldata(entries []usecase.DepositEntry) ([]depositCalldata, error) {
	out := make([]depositCalldata, 0, len(entries))
	for i, e := range entries {
		code, ok := tokenTypeCodes[e.TokenType]
		if !ok {
			return nil, fmt.Errorf("entry %d: unsupported token type %q", i, e.TokenType)
		}

		cd := depositCalldata{
			TokenType:         code,
			TokenAddress:      common.HexToAddress(e.TokenAddress),
			TokenIdsOrAmounts: e.AmountsOrIDs,
		}
		if cd.TokenIdsOrAmounts == nil {
			cd.TokenIdsOrAmounts = []*big.Int{}
		}

		if e.TokenType == round.TokenERC721 {
			floorPrice, err := buildFloorPrice(e.Attestation)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			cd.ReservoirOracleFloorPrice = floorPrice
		} else {
			cd.ReservoirOracleFloorPrice = emptyFloorPrice()
		}
		out = append(out, cd)
	}
	return out, nil
}

func buildFloorPrice(att *selection.Attestation) (reservoirOracleFloorPrice, error) {
	if att == nil || !att.Valid() {
		return reservoirOracleFloorPrice{}, fmt.Errorf("missing floor price attestation")
	}

	id, err := attestationID(att.ID)
	if err != nil {
		return reservoirOracleFloorPrice{}, err
	}
	return reservoirOracleFloorPrice{
		Id:        id,
		Payload:   att.Payload,
		Timestamp: big.NewInt(att.Timestamp),
		Signature: att.Signature,
	}, nil
}

func emptyFloorPrice() reservoirOracleFloorPrice {
	return reservoirOracleFloorPrice{
		Payload:   []byte{},
		Timestamp: new(big.Int),
		Signature: []byte{},
	}
}

func attestationID(raw string) ([32]byte, error) {
	var id [32]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return id, fmt.Errorf("decode attestation id %q: %w", raw, err)
	}
	if len(decoded) > 32 {
		return id, fmt.Errorf("attestation id %q exceeds 32 bytes", raw)
	}
	copy(id[32-len(decoded):], decoded)
	return id, nil
}
