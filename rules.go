package bankacct

import "github.com/shopspring/decimal"

// BusinessRule is a pure admissibility check applied to a charge before it
// mutates an account balance. Rules are stateless and never mutate their
// arguments.
type BusinessRule interface {
	Validate(acct *Account, amount decimal.Decimal) error
}

type SavingsWithdrawalRule struct{}

func (SavingsWithdrawalRule) Validate(acct *Account, amount decimal.Decimal) error {
	if acct.Balance.Sub(amount).IsNegative() {
		return ErrRuleViolation{Reason: "savings accounts cannot have a negative balance"}
	}
	return nil
}

type CheckingWithdrawalRule struct{}

func (CheckingWithdrawalRule) Validate(acct *Account, amount decimal.Decimal) error {
	if acct.Balance.Sub(amount).LessThan(overdraftFloor) {
		return ErrRuleViolation{Reason: "checking accounts cannot have a balance below -500"}
	}
	return nil
}

// DepositRule is shared across account types.
type DepositRule struct{}

func (DepositRule) Validate(_ *Account, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrBadRequest{Fields: map[string]string{"amount": "deposit amount must be positive"}}
	}
	return nil
}

// withdrawalRules builds the per-type dispatch table once at service
// construction. A lookup miss at runtime is an ErrNoRule, not a user error.
func withdrawalRules() map[AccountType]BusinessRule {
	return map[AccountType]BusinessRule{
		Savings:  SavingsWithdrawalRule{},
		Checking: CheckingWithdrawalRule{},
	}
}
