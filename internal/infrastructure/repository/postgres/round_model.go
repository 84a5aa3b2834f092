package postgres

import (
	"fmt"
	"math/big"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/nftearth/fortune/internal/domain/round"
)

type roundTableModel struct {
	RoundID                     int64     `db:"round_id"`
	Status                      string    `db:"status"`
	CutoffTime                  int64     `db:"cutoff_time"`
	Duration                    int64     `db:"duration"`
	ValuePerEntry               string    `db:"value_per_entry"`
	NumberOfEntries             int64     `db:"number_of_entries"`
	NumberOfParticipants        int64     `db:"number_of_participants"`
	MaximumNumberOfDeposits     int64     `db:"maximum_number_of_deposits"`
	MaximumNumberOfParticipants int64     `db:"maximum_number_of_participants"`
	Winner                      string    `db:"winner"`
	DrawnHash                   string    `db:"drawn_hash"`
	ProtocolFeeBp               int64     `db:"protocol_fee_bp"`
	Deposits                    []byte    `db:"deposits"`
	CreatedAt                   time.Time `db:"created_at"`
	UpdatedAt                   time.Time `db:"updated_at"`
}

// depositJSON is the JSONB shape of one deposit. Big integers travel
// as decimal strings.
type depositJSON struct {
	ID                 string `json:"id"`
	Depositor          string `json:"depositor"`
	TokenAddress       string `json:"tokenAddress,omitempty"`
	TokenAmount        string `json:"tokenAmount,omitempty"`
	TokenID            string `json:"tokenId,omitempty"`
	TokenType          string `json:"tokenType"`
	EntriesCount       uint64 `json:"entriesCount"`
	Indice             uint64 `json:"indice"`
	Claimed            bool   `json:"claimed"`
	RoundValuePerEntry string `json:"roundValuePerEntry,omitempty"`
}

func toTableModel(r round.Round, now time.Time) (roundTableModel, error) {
	deposits := make([]depositJSON, 0, len(r.Deposits))
	for _, d := range r.Deposits {
		deposits = append(deposits, depositJSON{
			ID:                 d.ID,
			Depositor:          d.Depositor,
			TokenAddress:       d.TokenAddress,
			TokenAmount:        bigToString(d.TokenAmount),
			TokenID:            bigToString(d.TokenID),
			TokenType:          string(d.TokenType),
			EntriesCount:       d.EntriesCount,
			Indice:             d.Indice,
			Claimed:            d.Claimed,
			RoundValuePerEntry: bigToString(d.RoundValuePerEntry),
		})
	}

	raw, err := sonic.Marshal(deposits)
	if err != nil {
		return roundTableModel{}, fmt.Errorf("marshal deposits: %w", err)
	}

	return roundTableModel{
		RoundID:                     int64(r.ID),
		Status:                      string(r.Status),
		CutoffTime:                  r.CutoffTime,
		Duration:                    r.Duration,
		ValuePerEntry:               bigToString(r.ValuePerEntry),
		NumberOfEntries:             int64(r.NumberOfEntries),
		NumberOfParticipants:        int64(r.NumberOfParticipants),
		MaximumNumberOfDeposits:     int64(r.MaximumNumberOfDeposits),
		MaximumNumberOfParticipants: int64(r.MaximumNumberOfParticipants),
		Winner:                      r.Winner,
		DrawnHash:                   r.DrawnHash,
		ProtocolFeeBp:               int64(r.ProtocolFeeBp),
		Deposits:                    raw,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}, nil
}

func (m roundTableModel) toDomain() (round.Round, error) {
	var deposits []depositJSON
	if len(m.Deposits) > 0 {
		if err := sonic.Unmarshal(m.Deposits, &deposits); err != nil {
			return round.Round{}, fmt.Errorf("unmarshal deposits for round %d: %w", m.RoundID, err)
		}
	}

	out := round.Round{
		ID:                          uint64(m.RoundID),
		Status:                      round.Status(m.Status),
		CutoffTime:                  m.CutoffTime,
		Duration:                    m.Duration,
		ValuePerEntry:               stringToBig(m.ValuePerEntry),
		NumberOfEntries:             uint64(m.NumberOfEntries),
		NumberOfParticipants:        uint64(m.NumberOfParticipants),
		MaximumNumberOfDeposits:     uint64(m.MaximumNumberOfDeposits),
		MaximumNumberOfParticipants: uint64(m.MaximumNumberOfParticipants),
		Winner:                      m.Winner,
		DrawnHash:                   m.DrawnHash,
		ProtocolFeeBp:               uint64(m.ProtocolFeeBp),
	}

	for _, d := range deposits {
		out.Deposits = append(out.Deposits, round.Deposit{
			ID:                 d.ID,
			RoundID:            out.ID,
			Depositor:          d.Depositor,
			TokenAddress:       d.TokenAddress,
			TokenAmount:        stringToBig(d.TokenAmount),
			TokenID:            stringToBig(d.TokenID),
			TokenType:          round.TokenType(d.TokenType),
			EntriesCount:       d.EntriesCount,
			Indice:             d.Indice,
			Claimed:            d.Claimed,
			RoundValuePerEntry: stringToBig(d.RoundValuePerEntry),
		})
	}

	return out, nil
}

func bigToString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func stringToBig(s string) *big.Int {
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}
