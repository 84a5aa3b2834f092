package round

import (
	"math/big"
	"sort"
	"strings"
)

// Player aggregates a round's deposits by depositor. WinChance is a
// percentage in [0, 100] proportional to entries held.
type Player struct {
	Address   string
	Entries   uint64
	Value     *big.Int
	WinChance float64
}

// PrizeShare is one depositor's contribution to a prize asset.
type PrizeShare struct {
	Depositor string
	Amount    *big.Int
}

// Prize groups a round's deposits by asset. For ERC721 assets each
// token id is its own prize; fungible assets are summed.
type Prize struct {
	TokenType    TokenType
	TokenAddress string
	TokenID      *big.Int
	Amount       *big.Int
	Entries      uint64
	Shares       []PrizeShare
}

// Players projects the round's deposit list into the per-depositor
// aggregate, ordered by first deposit appearance. Pure function:
// recomputed whenever round data changes, never independently mutated.
func Players(r Round) []Player {
	byAddr := make(map[string]*Player, len(r.Deposits))
	order := make([]string, 0, len(r.Deposits))

	for _, d := range r.Deposits {
		addr := normalizeAddress(d.Depositor)
		p, ok := byAddr[addr]
		if !ok {
			p = &Player{Address: addr, Value: new(big.Int)}
			byAddr[addr] = p
			order = append(order, addr)
		}
		p.Entries += d.EntriesCount
		p.Value.Add(p.Value, d.Value())
	}

	var totalEntries uint64
	for _, addr := range order {
		totalEntries += byAddr[addr].Entries
	}

	out := make([]Player, 0, len(order))
	for _, addr := range order {
		p := byAddr[addr]
		if totalEntries > 0 {
			p.WinChance = float64(p.Entries) / float64(totalEntries) * 100
		}
		out = append(out, *p)
	}
	return out
}

// Prizes projects the round's deposit list into the per-asset prize
// pool composition.
func Prizes(r Round) []Prize {
	type key struct {
		addr    string
		tokenID string
	}
	byKey := make(map[key]*Prize, len(r.Deposits))
	order := make([]key, 0, len(r.Deposits))

	for _, d := range r.Deposits {
		k := key{addr: normalizeAddress(d.TokenAddress)}
		if d.TokenType == TokenERC721 && d.TokenID != nil {
			k.tokenID = d.TokenID.String()
		}
		p, ok := byKey[k]
		if !ok {
			p = &Prize{
				TokenType:    d.TokenType,
				TokenAddress: k.addr,
				Amount:       new(big.Int),
			}
			if d.TokenType == TokenERC721 && d.TokenID != nil {
				p.TokenID = new(big.Int).Set(d.TokenID)
			}
			byKey[k] = p
			order = append(order, k)
		}
		if d.TokenAmount != nil {
			p.Amount.Add(p.Amount, d.TokenAmount)
		}
		p.Entries += d.EntriesCount
		p.Shares = append(p.Shares, PrizeShare{
			Depositor: normalizeAddress(d.Depositor),
			Amount:    d.Value(),
		})
	}

	out := make([]Prize, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// Totals re-aggregates the projections back to round-level counters.
// For a consistent snapshot this reproduces NumberOfEntries and
// NumberOfParticipants exactly.
func Totals(players []Player) (entries uint64, participants uint64) {
	for _, p := range players {
		entries += p.Entries
	}
	return entries, uint64(len(players))
}

// TopPlayers returns up to limit players ordered by entries held,
// ties broken by address for stable output.
func TopPlayers(players []Player, limit int) []Player {
	out := append([]Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Entries != out[j].Entries {
			return out[i].Entries > out[j].Entries
		}
		return out[i].Address < out[j].Address
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
