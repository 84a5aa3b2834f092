package selection

import (
	"math/big"
	"strings"
)

// ETHKey is the synthetic map key for the native-currency entry. Every
// other entry is keyed by its lowercase contract address.
const ETHKey = "eth"

// Attestation is a signed oracle floor-price message accompanying an
// NFT deposit. The contract verifies the signature; the client only
// checks the message is complete and carries a positive price.
type Attestation struct {
	ID        string
	Payload   []byte
	Timestamp int64
	Signature []byte
	Price     *big.Int
}

func (a Attestation) Valid() bool {
	return a.ID != "" &&
		a.Timestamp > 0 &&
		len(a.Signature) > 0 &&
		a.Price != nil &&
		a.Price.Sign() > 0
}

// Item is one selected asset. Fungible items carry Amount; ERC721 items
// carry TokenIDs with an attestation per token id.
type Item struct {
	Contract     string
	Fungible     bool
	Amount       *big.Int
	TokenIDs     []*big.Int
	Attestations map[string]Attestation
}

func (it Item) clone() Item {
	out := Item{Contract: it.Contract, Fungible: it.Fungible}
	if it.Amount != nil {
		out.Amount = new(big.Int).Set(it.Amount)
	}
	if len(it.TokenIDs) > 0 {
		out.TokenIDs = make([]*big.Int, len(it.TokenIDs))
		for i, id := range it.TokenIDs {
			out.TokenIDs[i] = new(big.Int).Set(id)
		}
	}
	if len(it.Attestations) > 0 {
		out.Attestations = make(map[string]Attestation, len(it.Attestations))
		for k, v := range it.Attestations {
			out.Attestations[k] = v
		}
	}
	return out
}

// Builder accumulates a user's pending deposit selection keyed by
// contract address. Not safe for concurrent use; the owning store
// serializes access.
type Builder struct {
	items map[string]*Item
	order []string
}

func NewBuilder() *Builder {
	return &Builder{items: make(map[string]*Item)}
}

// SetETH replaces the native-currency amount. A zero amount removes
// the entry.
func (b *Builder) SetETH(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		b.Remove(ETHKey)
		return
	}
	it := b.ensure(ETHKey, true)
	it.Amount = new(big.Int).Set(amount)
}

// AddFungible adds to an ERC20 amount. A resulting zero amount removes
// the entry.
func (b *Builder) AddFungible(contract string, amount *big.Int) {
	key := normalizeKey(contract)
	if key == "" || key == ETHKey {
		return
	}
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if existing, ok := b.items[key]; ok && !existing.Fungible {
		return
	}
	it := b.ensure(key, true)
	if it.Amount == nil {
		it.Amount = new(big.Int)
	}
	it.Amount.Add(it.Amount, amount)
	if it.Amount.Sign() <= 0 {
		b.Remove(key)
	}
}

// ToggleNFT selects a token id, or deselects it when already present.
// Selecting requires a valid floor-price attestation; without one the
// selection is left untouched and false is returned. Deselecting the
// last token id of a contract drops the contract entry.
func (b *Builder) ToggleNFT(contract string, tokenID *big.Int, att Attestation) bool {
	key := normalizeKey(contract)
	if key == "" || key == ETHKey || tokenID == nil {
		return false
	}

	if it, ok := b.items[key]; ok {
		// One key holds one shape; an ERC20 entry never grows token ids.
		if it.Fungible {
			return false
		}
		for i, id := range it.TokenIDs {
			if id.Cmp(tokenID) == 0 {
				it.TokenIDs = append(it.TokenIDs[:i], it.TokenIDs[i+1:]...)
				delete(it.Attestations, tokenID.String())
				if len(it.TokenIDs) == 0 {
					b.Remove(key)
				}
				return true
			}
		}
	}

	if !att.Valid() {
		return false
	}
	it := b.ensure(key, false)
	it.TokenIDs = append(it.TokenIDs, new(big.Int).Set(tokenID))
	if it.Attestations == nil {
		it.Attestations = make(map[string]Attestation)
	}
	it.Attestations[tokenID.String()] = att
	return true
}

// Remove drops a contract entry entirely.
func (b *Builder) Remove(contract string) {
	key := normalizeKey(contract)
	if _, ok := b.items[key]; !ok {
		return
	}
	delete(b.items, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Clear resets the selection to empty.
func (b *Builder) Clear() {
	b.items = make(map[string]*Item)
	b.order = nil
}

// Len reports how many contract entries are selected.
func (b *Builder) Len() int {
	return len(b.items)
}

// Snapshot returns a deep copy of the selection in insertion order.
func (b *Builder) Snapshot() []Item {
	out := make([]Item, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.items[key].clone())
	}
	return out
}

// TotalValue sums the ETH-equivalent value of the selection. Fungible
// tokens other than ETH convert through rates (wei per base unit);
// tokens without a rate contribute nothing. NFT value is the attested
// floor price per token id.
func (b *Builder) TotalValue(rates map[string]*big.Rat) *big.Int {
	total := new(big.Int)
	for _, key := range b.order {
		it := b.items[key]
		switch {
		case key == ETHKey:
			total.Add(total, it.Amount)
		case it.Fungible:
			rate, ok := rates[key]
			if !ok || it.Amount == nil {
				continue
			}
			v := new(big.Rat).SetInt(it.Amount)
			v.Mul(v, rate)
			total.Add(total, new(big.Int).Quo(v.Num(), v.Denom()))
		default:
			for _, id := range it.TokenIDs {
				if att, ok := it.Attestations[id.String()]; ok && att.Price != nil {
					total.Add(total, att.Price)
				}
			}
		}
	}
	return total
}

// Entries reports how many round entries the selection buys at the
// given value per entry.
func (b *Builder) Entries(valuePerEntry *big.Int, rates map[string]*big.Rat) uint64 {
	if valuePerEntry == nil || valuePerEntry.Sign() <= 0 {
		return 0
	}
	total := b.TotalValue(rates)
	if total.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Quo(total, valuePerEntry)
	if !q.IsUint64() {
		return 0
	}
	return q.Uint64()
}

func (b *Builder) ensure(key string, fungible bool) *Item {
	if it, ok := b.items[key]; ok {
		return it
	}
	it := &Item{Contract: key, Fungible: fungible}
	b.items[key] = it
	b.order = append(b.order, key)
	return it
}

func normalizeKey(contract string) string {
	return strings.ToLower(strings.TrimSpace(contract))
}
