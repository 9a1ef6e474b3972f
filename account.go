package bankacct

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Savings  AccountType = "SAVINGS"
	Checking AccountType = "CHECKING"
)

const accountNumberLen = 12

// overdraftFloor is the most-negative balance a checking account may reach.
var overdraftFloor = decimal.NewFromInt(-500)

func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(s)); t {
	case Savings, Checking:
		return t, nil
	}
	return "", ErrBadRequest{Fields: map[string]string{"accountType": "must be SAVINGS or CHECKING"}}
}

// Account is a single bank account. The ID is assigned by the repository
// on first save; the account number is generated here and never changes.
type Account struct {
	ID            snowflake.ID    `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"accountType"`
	CustomerID    int64           `json:"customerId"`
}

func NewAccount(typ AccountType, balance decimal.Decimal, customerID int64) (*Account, error) {
	acct := &Account{
		AccountNumber: generateAccountNumber(),
	}
	if err := acct.SetAccountType(typ); err != nil {
		return nil, err
	}
	if err := acct.SetCustomerID(customerID); err != nil {
		return nil, err
	}
	if balance.IsNegative() {
		return nil, ErrBadRequest{Fields: map[string]string{"balance": "initial balance must be zero or greater"}}
	}
	if err := acct.SetBalance(balance); err != nil {
		return nil, err
	}
	return acct, nil
}

// SetBalance replaces the balance. Savings accounts may not go below zero,
// checking accounts may not go below the overdraft floor. The rule set is
// expected to have validated the mutation already; this check stands on its
// own so no code path can bypass it.
func (a *Account) SetBalance(v decimal.Decimal) error {
	if a.AccountType == Savings && v.IsNegative() {
		return ErrRuleViolation{Reason: "savings accounts cannot have a negative balance"}
	}
	if a.AccountType == Checking && v.LessThan(overdraftFloor) {
		return ErrRuleViolation{Reason: "checking accounts cannot have a balance below -500"}
	}
	a.Balance = v
	return nil
}

func (a *Account) SetAccountType(typ AccountType) error {
	switch typ {
	case Savings, Checking:
		a.AccountType = typ
		return nil
	}
	return ErrBadRequest{Fields: map[string]string{"accountType": "must be SAVINGS or CHECKING"}}
}

func (a *Account) SetCustomerID(id int64) error {
	if id <= 0 {
		return ErrBadRequest{Fields: map[string]string{"customerId": "must be a positive value"}}
	}
	a.CustomerID = id
	return nil
}

// generateAccountNumber draws from a random UUID, so there is no central
// sequence backing uniqueness; callers persisting an account must check
// ExistsByAccountNumber and regenerate on collision.
func generateAccountNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:accountNumberLen]
}
