package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/worktracker/internal/config"
	"git.home.luguber.info/inful/worktracker/internal/mqtt"
	"git.home.luguber.info/inful/worktracker/internal/store"
	"git.home.luguber.info/inful/worktracker/internal/tracker"
)

type staticProvider struct{}

func (staticProvider) Status(context.Context, time.Time) (tracker.Snapshot, error) {
	return tracker.Snapshot{StatusLabel: tracker.StatusIdle}, nil
}

func TestPruneOldLogs(t *testing.T) {
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	_, err = st.GetToday(ctx, time.Now().AddDate(0, 0, -10))
	require.NoError(t, err)
	_, err = st.GetToday(ctx, time.Now())
	require.NoError(t, err)

	cfg := config.MQTTConfig{BrokerAddress: "broker.local", Port: 1883, TopicPrefix: "worktracker", UpdateInterval: 60}
	publisher := mqtt.New(cfg, "testhost", staticProvider{})

	d, err := New(publisher, st, 7, "", nil)
	require.NoError(t, err)

	d.pruneOldLogs()

	today := time.Now().Local().Format(store.DateLayout)
	_, err = st.GetLog(ctx, today)
	require.NoError(t, err, "today's row must survive the prune")

	old := time.Now().AddDate(0, 0, -10).Local().Format(store.DateLayout)
	_, err = st.GetLog(ctx, old)
	require.ErrorIs(t, err, store.ErrNotFound)
}
