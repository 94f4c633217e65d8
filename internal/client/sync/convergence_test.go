package sync

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/finsync/internal/client/api"
	"github.com/iudanet/finsync/internal/client/data"
	"github.com/iudanet/finsync/internal/client/merge"
	"github.com/iudanet/finsync/internal/client/outbox"
	"github.com/iudanet/finsync/internal/client/retry"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/internal/server"
	"github.com/iudanet/finsync/internal/server/documents"
	"github.com/iudanet/finsync/internal/server/jwt"
	serverSqlite "github.com/iudanet/finsync/internal/server/storage/sqlite"
	"github.com/iudanet/finsync/pkg/api"
)

const convergenceUser = "user-42"

type device struct {
	store    storage.Store
	data     data.Service
	protocol *Protocol
	gateway  *httpClient.Client
}

func startEmulator(t *testing.T) string {
	t.Helper()

	store, err := serverSqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(server.NewRouter(server.Config{
		Documents: documents.NewService(store, discardLogger()),
		Tokens:    jwt.NewService("convergence", time.Hour),
		Logger:    discardLogger(),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newDevice(t *testing.T, baseURL string) *device {
	t.Helper()
	ctx := context.Background()

	token, _, err := jwt.NewService("convergence", time.Hour).Issue(convergenceUser)
	require.NoError(t, err)
	gw := httpClient.NewClient(baseURL+"/v1", "demo", &httpClient.TokenSourceMock{
		TokenFunc: func(ctx context.Context) (string, error) { return token, nil },
	})

	store := newTestStore(t)
	deviceID, err := EnsureDeviceID(ctx, store)
	require.NoError(t, err)

	return &device{
		store: store,
		data:  data.NewService(store, outbox.NewWriter(), discardLogger()),
		protocol: NewProtocol(store, gw, merge.NewMerger(discardLogger()), Config{
			UserUID:  convergenceUser,
			DeviceID: deviceID,
			Retry:    retry.DefaultPolicy(),
		}, discardLogger()),
		gateway: gw,
	}
}

func (d *device) sync(t *testing.T) Result {
	t.Helper()
	res := d.protocol.SyncNow(context.Background(), 0, 0)
	require.True(t, res.Success, res.Error)
	return res
}

type txnView struct {
	Note   string
	Amount float64
}

func (d *device) transactions(t *testing.T) map[string]txnView {
	t.Helper()
	txns, err := d.data.ListTransactions(context.Background(), 0)
	require.NoError(t, err)

	out := make(map[string]txnView, len(txns))
	for _, txn := range txns {
		out[txn.ID] = txnView{Note: txn.Note, Amount: txn.Amount}
	}
	return out
}

func TestTwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	url := startEmulator(t)

	a := newDevice(t, url)
	acc, err := a.data.CreateAccount(ctx, data.AccountInput{Name: "Wallet", Currency: "USD"})
	require.NoError(t, err)
	first, err := a.data.CreateTransaction(ctx, data.TransactionInput{
		AccountID:    acc.ID,
		Type:         models.TxnTypeExpense,
		Amount:       12.5,
		CategoryName: "Food",
		Note:         "lunch",
	})
	require.NoError(t, err)

	res := a.sync(t)
	assert.Equal(t, 2, res.Pushed)
	// свои события не применяются повторно
	assert.Zero(t, res.Pulled)

	// второе устройство стартует со снимков
	b := newDevice(t, url)
	boot, err := NewBootstrapper(b.store, b.gateway, merge.NewMerger(discardLogger()), convergenceUser, discardLogger()).Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, boot.Inserted[api.CollectionAccounts])
	assert.Equal(t, 1, boot.Inserted[api.CollectionTransactions])
	assert.Equal(t, a.transactions(t), b.transactions(t))

	cats, err := b.data.ListCategories(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Food")

	amount := 20.0
	_, changed, err := a.data.UpdateTransaction(ctx, first.ID, data.TransactionUpdate{Amount: &amount})
	require.NoError(t, err)
	require.True(t, changed)
	a.sync(t)

	res = b.sync(t)
	assert.Equal(t, 1, res.Pulled)
	assert.Equal(t, txnView{Note: "lunch", Amount: 20}, b.transactions(t)[first.ID])

	// B правит позже A: побеждает последняя запись
	note := "team lunch"
	_, _, err = b.data.UpdateTransaction(ctx, first.ID, data.TransactionUpdate{Note: &note})
	require.NoError(t, err)
	second, err := b.data.CreateTransaction(ctx, data.TransactionInput{
		AccountID:    acc.ID,
		Type:         models.TxnTypeIncome,
		Amount:       100,
		CategoryName: "Food",
	})
	require.NoError(t, err)
	res = b.sync(t)
	assert.Equal(t, 2, res.Pushed)

	res = a.sync(t)
	assert.Equal(t, 2, res.Pulled)

	want := map[string]txnView{
		first.ID:  {Note: "team lunch", Amount: 20},
		second.ID: {Amount: 100},
	}
	assert.Equal(t, want, a.transactions(t))
	assert.Equal(t, want, b.transactions(t))

	require.NoError(t, a.data.DeleteTransaction(ctx, second.ID))
	a.sync(t)
	b.sync(t)
	assert.Equal(t, a.transactions(t), b.transactions(t))
	assert.NotContains(t, b.transactions(t), second.ID)

	// повторная синхронизация ничего не меняет
	res = b.sync(t)
	assert.Zero(t, res.Pushed)
	assert.Zero(t, res.Pulled)

	// снимок сервера отражает итоговое состояние
	snapshot, err := a.gateway.FetchSnapshot(ctx, convergenceUser, api.CollectionTransactions, 10)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, first.ID, snapshot[0]["id"])
	assert.Equal(t, "team lunch", snapshot[0]["note"])
}
