package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nftearth/fortune/internal/domain/round"
	qb "github.com/nftearth/fortune/internal/platform/querybuilder"
)

const roundColumns = "round_id, status, cutoff_time, duration, value_per_entry, " +
	"number_of_entries, number_of_participants, maximum_number_of_deposits, " +
	"maximum_number_of_participants, winner, drawn_hash, protocol_fee_bp, " +
	"deposits, created_at, updated_at"

// RoundRepository mirrors rounds into postgres so terminal rounds
// survive restarts and history pages stop hitting the indexer.
type RoundRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db, now: time.Now}
}

func (r *RoundRepository) GetByID(ctx context.Context, roundID uint64) (round.Round, bool, error) {
	query, args, err := qb.Select(roundColumns).From("rounds").
		Where(qb.Eq("round_id", int64(roundID))).
		Build()
	if err != nil {
		return round.Round{}, false, fmt.Errorf("build get round by id query: %w", err)
	}

	var row roundTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("get round by id: %w", err)
	}

	rnd, err := row.toDomain()
	if err != nil {
		return round.Round{}, false, err
	}

	return rnd, true, nil
}

func (r *RoundRepository) List(ctx context.Context, first, skip int) ([]round.Round, error) {
	if first <= 0 {
		return nil, nil
	}

	query, args, err := qb.Select(roundColumns).From("rounds").
		Where(qb.In("status", []any{string(round.StatusDrawn), string(round.StatusCancelled)})).
		OrderBy("round_id DESC").
		Limit(first).
		Offset(skip).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build list rounds query: %w", err)
	}

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		rnd, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rnd)
	}

	return out, nil
}

func (r *RoundRepository) Upsert(ctx context.Context, rnd round.Round) error {
	row, err := toTableModel(rnd, r.now().UTC())
	if err != nil {
		return err
	}

	query, args, err := qb.InsertInto("rounds").
		Columns("round_id", "status", "cutoff_time", "duration", "value_per_entry",
			"number_of_entries", "number_of_participants", "maximum_number_of_deposits",
			"maximum_number_of_participants", "winner", "drawn_hash", "protocol_fee_bp",
			"deposits", "created_at", "updated_at").
		Values(row.RoundID, row.Status, row.CutoffTime, row.Duration, row.ValuePerEntry,
			row.NumberOfEntries, row.NumberOfParticipants, row.MaximumNumberOfDeposits,
			row.MaximumNumberOfParticipants, row.Winner, row.DrawnHash, row.ProtocolFeeBp,
			row.Deposits, row.CreatedAt, row.UpdatedAt).
		Suffix(`ON CONFLICT (round_id) DO UPDATE SET
			status = EXCLUDED.status,
			cutoff_time = EXCLUDED.cutoff_time,
			duration = EXCLUDED.duration,
			value_per_entry = EXCLUDED.value_per_entry,
			number_of_entries = EXCLUDED.number_of_entries,
			number_of_participants = EXCLUDED.number_of_participants,
			maximum_number_of_deposits = EXCLUDED.maximum_number_of_deposits,
			maximum_number_of_participants = EXCLUDED.maximum_number_of_participants,
			winner = EXCLUDED.winner,
			drawn_hash = EXCLUDED.drawn_hash,
			protocol_fee_bp = EXCLUDED.protocol_fee_bp,
			deposits = EXCLUDED.deposits,
			updated_at = EXCLUDED.updated_at`).
		Build()
	if err != nil {
		return fmt.Errorf("build upsert round query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert round %d: %w", rnd.ID, err)
	}

	return nil
}
