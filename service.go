package bankacct

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const acctNumMaxRetries = 5

type CreateAccountReq struct {
	CustomerID  int64           `json:"customerId"`
	AccountType AccountType     `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
}

type UpdateAccountReq struct {
	CustomerID  int64           `json:"customerId"`
	AccountType AccountType     `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
}

type ChargeReq struct {
	Amount decimal.Decimal `json:"amount"`
	AcctID snowflake.ID    `json:"-"`
}

type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error)
	GetAccount(ctx context.Context, id snowflake.ID) (*Account, error)
	GetAllAccounts(ctx context.Context) ([]Account, error)
	GetAccountsByCustomer(ctx context.Context, customerID int64) ([]Account, error)
	CustomerHasAccounts(ctx context.Context, customerID int64) (bool, error)
	UpdateAccount(ctx context.Context, id snowflake.ID, req UpdateAccountReq) (*Account, error)
	DeleteAccount(ctx context.Context, id snowflake.ID) (bool, error)
	Deposit(ctx context.Context, req ChargeReq) (*Account, error)
	Withdraw(ctx context.Context, req ChargeReq) (*Account, error)
	Statement(ctx context.Context, w io.Writer, id snowflake.ID) error
}

func NewService(repo Repository, customers CustomerValidator, log *zerolog.Logger) *serviceImpl {
	return &serviceImpl{
		repo:        repo,
		customers:   customers,
		deposit:     DepositRule{},
		withdrawals: withdrawalRules(),
		log:         log,
	}
}

type serviceImpl struct {
	repo        Repository
	customers   CustomerValidator
	deposit     BusinessRule
	withdrawals map[AccountType]BusinessRule
	log         *zerolog.Logger
}

var (
	_ Service = (*serviceImpl)(nil)
)

func (s *serviceImpl) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	if !s.customers.Exists(ctx, req.CustomerID) {
		return nil, ErrBadRequest{Fields: map[string]string{"customerId": "customer does not exist"}}
	}
	acct, err := NewAccount(req.AccountType, req.Balance, req.CustomerID)
	if err != nil {
		return nil, err
	}
	// Account numbers come from a random source with no central sequence;
	// regenerate on collision instead of failing the request.
	for i := 0; i < acctNumMaxRetries; i++ {
		taken, err := s.repo.ExistsByAccountNumber(ctx, acct.AccountNumber)
		if err != nil {
			return nil, err
		}
		if !taken {
			return s.repo.Save(ctx, acct)
		}
		acct.AccountNumber = generateAccountNumber()
	}
	s.log.Error().
		Int64("customer_id", req.CustomerID).
		Msg("account number generation exhausted retries")
	return nil, ErrInternalServer
}

func (s *serviceImpl) GetAccount(ctx context.Context, id snowflake.ID) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *serviceImpl) GetAllAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.FindAll(ctx)
}

func (s *serviceImpl) GetAccountsByCustomer(ctx context.Context, customerID int64) ([]Account, error) {
	if !s.customers.Exists(ctx, customerID) {
		return nil, ErrBadRequest{Fields: map[string]string{"customerId": "customer does not exist"}}
	}
	return s.repo.FindByCustomerID(ctx, customerID)
}

func (s *serviceImpl) CustomerHasAccounts(ctx context.Context, customerID int64) (bool, error) {
	return s.repo.ExistsByCustomerID(ctx, customerID)
}

func (s *serviceImpl) UpdateAccount(ctx context.Context, id snowflake.ID, req UpdateAccountReq) (*Account, error) {
	if !s.customers.Exists(ctx, req.CustomerID) {
		return nil, ErrBadRequest{Fields: map[string]string{"customerId": "customer does not exist"}}
	}
	return s.repo.Mutate(ctx, id, func(acct *Account) error {
		if err := acct.SetAccountType(req.AccountType); err != nil {
			return err
		}
		if err := acct.SetCustomerID(req.CustomerID); err != nil {
			return err
		}
		return acct.SetBalance(req.Balance)
	})
}

func (s *serviceImpl) DeleteAccount(ctx context.Context, id snowflake.ID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *serviceImpl) Deposit(ctx context.Context, req ChargeReq) (*Account, error) {
	return s.repo.Mutate(ctx, req.AcctID, func(acct *Account) error {
		if err := s.deposit.Validate(acct, req.Amount); err != nil {
			return err
		}
		return acct.SetBalance(acct.Balance.Add(req.Amount))
	})
}

func (s *serviceImpl) Withdraw(ctx context.Context, req ChargeReq) (*Account, error) {
	if req.Amount.Sign() <= 0 {
		return nil, ErrBadRequest{Fields: map[string]string{"amount": "withdrawal amount must be positive"}}
	}
	return s.repo.Mutate(ctx, req.AcctID, func(acct *Account) error {
		rule, ok := s.withdrawals[acct.AccountType]
		if !ok {
			s.log.Error().
				Str("account_type", string(acct.AccountType)).
				Int64("acct_id", acct.ID.Int64()).
				Msg("no withdrawal rule registered")
			return ErrNoRule{AccountType: acct.AccountType}
		}
		if err := rule.Validate(acct, req.Amount); err != nil {
			return err
		}
		return acct.SetBalance(acct.Balance.Sub(req.Amount))
	})
}

func (s *serviceImpl) Statement(ctx context.Context, w io.Writer, id snowflake.ID) error {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return renderStatement(w, acct)
}
