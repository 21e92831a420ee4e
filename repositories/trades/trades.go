package trades

import (
	"context"
	"time"

	"signalbot/tracer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Entry is one signal line and what became of it.
type Entry struct {
	ID            uuid.UUID
	DiscordUserID string
	ChannelID     string
	Raw           string
	Symbol        string
	OrderType     string
	OrderKind     string
	Volume        float64
	Retcode       int
	Success       bool
	Error         string
	CreatedAt     time.Time
}

func (rp *PostgresRepository) Migrate(ctx context.Context) error {
	//language=SQL
	sql := `
		CREATE TABLE IF NOT EXISTS trade_signals(
			id uuid PRIMARY KEY,
			discord_user_id text NOT NULL,
			channel_id text NOT NULL,
			raw text NOT NULL,
			symbol text NOT NULL DEFAULT '',
			order_type text NOT NULL DEFAULT '',
			order_kind text NOT NULL DEFAULT '',
			volume double precision NOT NULL DEFAULT 0,
			retcode integer NOT NULL DEFAULT 0,
			success boolean NOT NULL,
			error text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS trade_signals_created_at ON trade_signals(created_at DESC);
	`
	_, err := rp.db.Exec(ctx, sql)
	return err
}

func (rp *PostgresRepository) Record(ctx context.Context, e Entry) error {
	ctx, childSpan := tracer.Start(ctx, "repositories.trades.record")
	defer childSpan.End()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	//language=SQL
	sql := `
		INSERT INTO trade_signals(
			id,
			discord_user_id,
			channel_id,
			raw,
			symbol,
			order_type,
			order_kind,
			volume,
			retcode,
			success,
			error,
			created_at
		) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := rp.db.Exec(
		ctx,
		sql,
		e.ID,
		e.DiscordUserID,
		e.ChannelID,
		e.Raw,
		e.Symbol,
		e.OrderType,
		e.OrderKind,
		e.Volume,
		e.Retcode,
		e.Success,
		e.Error,
		e.CreatedAt,
	)
	return err
}

func (rp *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, childSpan := tracer.Start(ctx, "repositories.trades.list_recent")
	defer childSpan.End()

	//language=SQL
	sql := `
		SELECT id, discord_user_id, channel_id, raw, symbol, order_type, order_kind,
			volume, retcode, success, error, created_at
		FROM trade_signals
		ORDER BY created_at DESC
		LIMIT $1;
	`
	r, err := rp.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := []Entry{}
	for r.Next() {
		e := Entry{}
		var id string
		err = r.Scan(
			&id,
			&e.DiscordUserID,
			&e.ChannelID,
			&e.Raw,
			&e.Symbol,
			&e.OrderType,
			&e.OrderKind,
			&e.Volume,
			&e.Retcode,
			&e.Success,
			&e.Error,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
