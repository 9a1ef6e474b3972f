package bankacct_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bankacct "github.com/bankacct-go/bankacct"
)

func savingsAcct(t *testing.T, balance string) *bankacct.Account {
	t.Helper()
	acct, err := bankacct.NewAccount(bankacct.Savings, decimal.RequireFromString(balance), 7)
	require.Nil(t, err)
	return acct
}

func checkingAcct(t *testing.T, balance string) *bankacct.Account {
	t.Helper()
	acct, err := bankacct.NewAccount(bankacct.Checking, decimal.Zero, 7)
	require.Nil(t, err)
	require.Nil(t, acct.SetBalance(decimal.RequireFromString(balance)))
	return acct
}

func TestSavingsWithdrawalRule(t *testing.T) {
	rule := bankacct.SavingsWithdrawalRule{}

	t.Run("admits a withdrawal down to zero exactly", func(tt *testing.T) {
		as := assert.New(tt)
		acct := savingsAcct(tt, "100")
		as.Nil(rule.Validate(acct, decimal.NewFromInt(100)))
	})

	t.Run("rejects a withdrawal that would go negative", func(tt *testing.T) {
		as := assert.New(tt)
		acct := savingsAcct(tt, "100")
		err := rule.Validate(acct, decimal.NewFromInt(150))
		as.ErrorAs(err, &bankacct.ErrRuleViolation{})
		as.True(acct.Balance.Equal(decimal.NewFromInt(100)))
	})
}

func TestCheckingWithdrawalRule(t *testing.T) {
	rule := bankacct.CheckingWithdrawalRule{}

	t.Run("admits a withdrawal down to the overdraft floor exactly", func(tt *testing.T) {
		as := assert.New(tt)
		acct := checkingAcct(tt, "0")
		as.Nil(rule.Validate(acct, decimal.NewFromInt(500)))
	})

	t.Run("rejects a withdrawal past the overdraft floor", func(tt *testing.T) {
		as := assert.New(tt)
		acct := checkingAcct(tt, "-400")
		err := rule.Validate(acct, decimal.NewFromInt(200))
		as.ErrorAs(err, &bankacct.ErrRuleViolation{})
	})
}

func TestDepositRule(t *testing.T) {
	rule := bankacct.DepositRule{}

	t.Run("admits any positive amount", func(tt *testing.T) {
		as := assert.New(tt)
		acct := savingsAcct(tt, "0")
		as.Nil(rule.Validate(acct, decimal.RequireFromString("0.01")))
	})

	t.Run("rejects zero and negative amounts", func(tt *testing.T) {
		as := assert.New(tt)
		acct := savingsAcct(tt, "0")
		as.ErrorAs(rule.Validate(acct, decimal.Zero), &bankacct.ErrBadRequest{})
		as.ErrorAs(rule.Validate(acct, decimal.NewFromInt(-10)), &bankacct.ErrBadRequest{})
	})
}
