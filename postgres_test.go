package bankacct_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bankacct "github.com/bankacct-go/bankacct"
)

var (
	testDBConnStr string
)

func init() {
	testDBConnStr = os.Getenv("TEST_DB_CONN_STR")
}

func initDB(t *testing.T) func() {
	t.Helper()
	conn, err := pgx.Connect(context.Background(), testDBConnStr)
	require.Nil(t, err)
	bits, err := os.ReadFile("testdata/init_db.sql")
	require.Nil(t, err)
	_, err = conn.Exec(context.Background(), string(bits))
	require.Nil(t, err)
	return func() {
		defer conn.Close(context.Background())
		bits, err := os.ReadFile("testdata/teardown_db.sql")
		if err != nil {
			return
		}
		_, _ = conn.Exec(context.Background(), string(bits))
	}
}

func TestPostgres(t *testing.T) {
	if testDBConnStr == "" {
		t.Skip("TEST_DB_CONN_STR not set")
	}
	as := assert.New(t)
	reqrd := require.New(t)
	t.Cleanup(initDB(t))

	log := zerolog.Nop()
	endpt, err := bankacct.NewPostgresEndpoint(testDBConnStr, &log)
	reqrd.Nil(err)
	ctx := context.Background()

	t.Run("Save assigns an ID and upserts by ID", func(tt *testing.T) {
		acct, err := bankacct.NewAccount(bankacct.Savings, decimal.NewFromInt(100), 7)
		require.Nil(tt, err)
		saved, err := endpt.Save(ctx, acct)
		require.Nil(tt, err)
		assert.NotZero(tt, saved.ID)

		require.Nil(tt, saved.SetBalance(decimal.NewFromInt(250)))
		again, err := endpt.Save(ctx, saved)
		require.Nil(tt, err)
		assert.Equal(tt, saved.ID, again.ID)

		found, err := endpt.FindByID(ctx, saved.ID)
		require.Nil(tt, err)
		assert.True(tt, found.Balance.Equal(decimal.NewFromInt(250)))
		assert.Equal(tt, saved.AccountNumber, found.AccountNumber)
	})

	t.Run("FindByID on an absent ID is a typed not found", func(tt *testing.T) {
		_, err := endpt.FindByID(ctx, 12345)
		assert.ErrorAs(tt, err, &bankacct.ErrNotFound{})
	})

	t.Run("duplicate account numbers are rejected", func(tt *testing.T) {
		first, err := bankacct.NewAccount(bankacct.Checking, decimal.Zero, 8)
		require.Nil(tt, err)
		_, err = endpt.Save(ctx, first)
		require.Nil(tt, err)

		second, err := bankacct.NewAccount(bankacct.Checking, decimal.Zero, 8)
		require.Nil(tt, err)
		second.AccountNumber = first.AccountNumber
		_, err = endpt.Save(ctx, second)
		assert.ErrorAs(tt, err, &bankacct.ErrBadRequest{})

		taken, err := endpt.ExistsByAccountNumber(ctx, first.AccountNumber)
		require.Nil(tt, err)
		assert.True(tt, taken)
	})

	t.Run("customer-scoped lookups", func(tt *testing.T) {
		for i := 0; i < 2; i++ {
			acct, err := bankacct.NewAccount(bankacct.Savings, decimal.Zero, 9)
			require.Nil(tt, err)
			_, err = endpt.Save(ctx, acct)
			require.Nil(tt, err)
		}

		accts, err := endpt.FindByCustomerID(ctx, 9)
		require.Nil(tt, err)
		assert.Len(tt, accts, 2)

		has, err := endpt.ExistsByCustomerID(ctx, 9)
		require.Nil(tt, err)
		assert.True(tt, has)

		has, err = endpt.ExistsByCustomerID(ctx, 9999)
		require.Nil(tt, err)
		assert.False(tt, has)
	})

	t.Run("Delete is idempotent", func(tt *testing.T) {
		acct, err := bankacct.NewAccount(bankacct.Savings, decimal.Zero, 10)
		require.Nil(tt, err)
		saved, err := endpt.Save(ctx, acct)
		require.Nil(tt, err)

		deleted, err := endpt.Delete(ctx, saved.ID)
		require.Nil(tt, err)
		assert.True(tt, deleted)

		deleted, err = endpt.Delete(ctx, saved.ID)
		require.Nil(tt, err)
		assert.False(tt, deleted)
	})

	t.Run("Mutate rolls back when the closure rejects the change", func(tt *testing.T) {
		acct, err := bankacct.NewAccount(bankacct.Savings, decimal.NewFromInt(100), 11)
		require.Nil(tt, err)
		saved, err := endpt.Save(ctx, acct)
		require.Nil(tt, err)

		_, err = endpt.Mutate(ctx, saved.ID, func(a *bankacct.Account) error {
			return a.SetBalance(a.Balance.Sub(decimal.NewFromInt(150)))
		})
		assert.ErrorAs(tt, err, &bankacct.ErrRuleViolation{})

		found, err := endpt.FindByID(ctx, saved.ID)
		require.Nil(tt, err)
		assert.True(tt, found.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("concurrent mutations on one account never lose updates", func(tt *testing.T) {
		acct, err := bankacct.NewAccount(bankacct.Savings, decimal.Zero, 12)
		require.Nil(tt, err)
		saved, err := endpt.Save(ctx, acct)
		require.Nil(tt, err)

		const workers = 20
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := endpt.Mutate(ctx, saved.ID, func(a *bankacct.Account) error {
					return a.SetBalance(a.Balance.Add(decimal.NewFromInt(1)))
				})
				as.Nil(err)
			}()
		}
		wg.Wait()

		found, err := endpt.FindByID(ctx, saved.ID)
		require.Nil(tt, err)
		assert.True(tt, found.Balance.Equal(decimal.NewFromInt(workers)))
	})
}
