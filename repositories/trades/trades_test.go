package trades

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	url := os.Getenv("POSTGRESQL_TEST_URL")
	if url == "" {
		t.Skip("POSTGRESQL_TEST_URL not set")
	}

	ctx := context.Background()
	db, err := pgxpool.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	rp := NewPostgresRepository(db)
	require.NoError(t, rp.Migrate(ctx))
	_, err = db.Exec(ctx, "TRUNCATE trade_signals;")
	require.NoError(t, err)
	return rp
}

func TestRecordAndListRecent(t *testing.T) {
	rp := testRepository(t)
	ctx := context.Background()

	older := Entry{
		DiscordUserID: "1",
		ChannelID:     "10",
		Raw:           "hello",
		Success:       false,
		Error:         "invalid signal format",
		CreatedAt:     time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond),
	}
	newer := Entry{
		ID:            uuid.New(),
		DiscordUserID: "2",
		ChannelID:     "10",
		Raw:           "SELL LIMIT XAUUSD 1% 2558 2573.6 2520",
		Symbol:        "XAUUSD",
		OrderType:     "SELL",
		OrderKind:     "LIMIT",
		Volume:        0.06,
		Retcode:       10009,
		Success:       true,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, rp.Record(ctx, older))
	require.NoError(t, rp.Record(ctx, newer))

	got, err := rp.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, newer.Volume, got[0].Volume)
	assert.True(t, got[0].Success)
	assert.NotEqual(t, uuid.Nil, got[1].ID)
	assert.Equal(t, "invalid signal format", got[1].Error)

	got, err = rp.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
