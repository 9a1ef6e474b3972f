package bankacct

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

//
// Request validation middleware
//

// validationMiddleware rejects malformed requests before they reach the
// core service. It only checks request shape; business rules and the
// customer-existence gate stay in the core.
type validationMiddleware struct {
	next Service
}

var (
	_ Service = (*validationMiddleware)(nil)
)

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{next: svc}
	}
}

func checkAccountFields(customerID int64, typ AccountType, balance decimal.Decimal) map[string]string {
	fields := make(map[string]string)
	if customerID <= 0 {
		fields["customerId"] = "must be a positive value"
	}
	if typ != Savings && typ != Checking {
		fields["accountType"] = "must be SAVINGS or CHECKING"
	}
	if balance.IsNegative() {
		fields["balance"] = "must be zero or greater"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (v *validationMiddleware) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	if fields := checkAccountFields(req.CustomerID, req.AccountType, req.Balance); fields != nil {
		return nil, ErrBadRequest{Fields: fields}
	}
	return v.next.CreateAccount(ctx, req)
}

func (v *validationMiddleware) GetAccount(ctx context.Context, id snowflake.ID) (*Account, error) {
	return v.next.GetAccount(ctx, id)
}

func (v *validationMiddleware) GetAllAccounts(ctx context.Context) ([]Account, error) {
	return v.next.GetAllAccounts(ctx)
}

func (v *validationMiddleware) GetAccountsByCustomer(ctx context.Context, customerID int64) ([]Account, error) {
	if customerID <= 0 {
		return nil, ErrBadRequest{Fields: map[string]string{"customerId": "must be a positive value"}}
	}
	return v.next.GetAccountsByCustomer(ctx, customerID)
}

func (v *validationMiddleware) CustomerHasAccounts(ctx context.Context, customerID int64) (bool, error) {
	if customerID <= 0 {
		return false, ErrBadRequest{Fields: map[string]string{"customerId": "must be a positive value"}}
	}
	return v.next.CustomerHasAccounts(ctx, customerID)
}

func (v *validationMiddleware) UpdateAccount(ctx context.Context, id snowflake.ID, req UpdateAccountReq) (*Account, error) {
	if fields := checkAccountFields(req.CustomerID, req.AccountType, req.Balance); fields != nil {
		return nil, ErrBadRequest{Fields: fields}
	}
	return v.next.UpdateAccount(ctx, id, req)
}

func (v *validationMiddleware) DeleteAccount(ctx context.Context, id snowflake.ID) (bool, error) {
	return v.next.DeleteAccount(ctx, id)
}

func (v *validationMiddleware) Deposit(ctx context.Context, req ChargeReq) (*Account, error) {
	return v.next.Deposit(ctx, req)
}

func (v *validationMiddleware) Withdraw(ctx context.Context, req ChargeReq) (*Account, error) {
	return v.next.Withdraw(ctx, req)
}

func (v *validationMiddleware) Statement(ctx context.Context, w io.Writer, id snowflake.ID) error {
	return v.next.Statement(ctx, w, id)
}

//
// Rate limiting middleware
//

// limitMiddleware bounds the number of in-flight requests per operation
// group with weighted semaphores and an acquisition timeout. Limits are
// static per deployment; see config.
type limitMiddleware struct {
	next    Service
	limits  *ServiceLimits
	timeout time.Duration
}

var (
	_ Service = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	CreateAccount *semaphore.Weighted
	Charge        *semaphore.Weighted
	Query         *semaphore.Weighted
}

func NewServiceLimits(cfg *Config) *ServiceLimits {
	create, charge, query := cfg.Limits.CreateAccount, cfg.Limits.Charge, cfg.Limits.Query
	if create <= 0 {
		create = 64
	}
	if charge <= 0 {
		charge = 256
	}
	if query <= 0 {
		query = 512
	}
	return &ServiceLimits{
		CreateAccount: semaphore.NewWeighted(create),
		Charge:        semaphore.NewWeighted(charge),
		Query:         semaphore.NewWeighted(query),
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:    next,
			limits:  limits,
			timeout: time.Second,
		}
	}
}

func (l *limitMiddleware) acquire(ctx context.Context, sem *semaphore.Weighted) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		return ErrInternalServer
	}
	return nil
}

func (l *limitMiddleware) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	if err := l.acquire(ctx, l.limits.CreateAccount); err != nil {
		return nil, err
	}
	defer l.limits.CreateAccount.Release(1)
	return l.next.CreateAccount(ctx, req)
}

func (l *limitMiddleware) GetAccount(ctx context.Context, id snowflake.ID) (*Account, error) {
	if err := l.acquire(ctx, l.limits.Query); err != nil {
		return nil, err
	}
	defer l.limits.Query.Release(1)
	return l.next.GetAccount(ctx, id)
}

func (l *limitMiddleware) GetAllAccounts(ctx context.Context) ([]Account, error) {
	if err := l.acquire(ctx, l.limits.Query); err != nil {
		return nil, err
	}
	defer l.limits.Query.Release(1)
	return l.next.GetAllAccounts(ctx)
}

func (l *limitMiddleware) GetAccountsByCustomer(ctx context.Context, customerID int64) ([]Account, error) {
	if err := l.acquire(ctx, l.limits.Query); err != nil {
		return nil, err
	}
	defer l.limits.Query.Release(1)
	return l.next.GetAccountsByCustomer(ctx, customerID)
}

func (l *limitMiddleware) CustomerHasAccounts(ctx context.Context, customerID int64) (bool, error) {
	if err := l.acquire(ctx, l.limits.Query); err != nil {
		return false, err
	}
	defer l.limits.Query.Release(1)
	return l.next.CustomerHasAccounts(ctx, customerID)
}

func (l *limitMiddleware) UpdateAccount(ctx context.Context, id snowflake.ID, req UpdateAccountReq) (*Account, error) {
	if err := l.acquire(ctx, l.limits.Charge); err != nil {
		return nil, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.UpdateAccount(ctx, id, req)
}

func (l *limitMiddleware) DeleteAccount(ctx context.Context, id snowflake.ID) (bool, error) {
	if err := l.acquire(ctx, l.limits.Charge); err != nil {
		return false, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.DeleteAccount(ctx, id)
}

func (l *limitMiddleware) Deposit(ctx context.Context, req ChargeReq) (*Account, error) {
	if err := l.acquire(ctx, l.limits.Charge); err != nil {
		return nil, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.Deposit(ctx, req)
}

func (l *limitMiddleware) Withdraw(ctx context.Context, req ChargeReq) (*Account, error) {
	if err := l.acquire(ctx, l.limits.Charge); err != nil {
		return nil, err
	}
	defer l.limits.Charge.Release(1)
	return l.next.Withdraw(ctx, req)
}

func (l *limitMiddleware) Statement(ctx context.Context, w io.Writer, id snowflake.ID) error {
	if err := l.acquire(ctx, l.limits.Query); err != nil {
		return err
	}
	defer l.limits.Query.Release(1)
	return l.next.Statement(ctx, w, id)
}

//
// Circuit breaking middleware
//

type ServiceBreaker struct {
	CreateAccount *gobreaker.TwoStepCircuitBreaker[*Account]
	Charge        *gobreaker.TwoStepCircuitBreaker[*Account]
	Query         *gobreaker.TwoStepCircuitBreaker[interface{}]
}

func NewServiceBreaker() *ServiceBreaker {
	return &ServiceBreaker{
		CreateAccount: gobreaker.NewTwoStepCircuitBreaker[*Account](gobreaker.Settings{Name: "create_account"}),
		Charge:        gobreaker.NewTwoStepCircuitBreaker[*Account](gobreaker.Settings{Name: "charge"}),
		Query:         gobreaker.NewTwoStepCircuitBreaker[interface{}](gobreaker.Settings{Name: "query"}),
	}
}

// circuitBreakMiddleware trips per operation group when the service keeps
// failing with server-class errors. Client errors (bad request, not found,
// rule violations) never count against the breaker.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func isClientError(err error) bool {
	var (
		br ErrBadRequest
		nf ErrNotFound
		rv ErrRuleViolation
	)
	return errors.As(err, &br) || errors.As(err, &nf) || errors.As(err, &rv)
}

func (c *circuitBreakMiddleware) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	done, err := c.brkrs.CreateAccount.Allow()
	if err != nil {
		return nil, err
	}
	acct, err := c.next.CreateAccount(ctx, req)
	done(err == nil || isClientError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) GetAccount(ctx context.Context, id snowflake.ID) (*Account, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return nil, err
	}
	acct, err := c.next.GetAccount(ctx, id)
	done(err == nil || isClientError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) GetAllAccounts(ctx context.Context) ([]Account, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return nil, err
	}
	accts, err := c.next.GetAllAccounts(ctx)
	done(err == nil || isClientError(err))
	return accts, err
}

func (c *circuitBreakMiddleware) GetAccountsByCustomer(ctx context.Context, customerID int64) ([]Account, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return nil, err
	}
	accts, err := c.next.GetAccountsByCustomer(ctx, customerID)
	done(err == nil || isClientError(err))
	return accts, err
}

func (c *circuitBreakMiddleware) CustomerHasAccounts(ctx context.Context, customerID int64) (bool, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return false, err
	}
	has, err := c.next.CustomerHasAccounts(ctx, customerID)
	done(err == nil || isClientError(err))
	return has, err
}

func (c *circuitBreakMiddleware) UpdateAccount(ctx context.Context, id snowflake.ID, req UpdateAccountReq) (*Account, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, err
	}
	acct, err := c.next.UpdateAccount(ctx, id, req)
	done(err == nil || isClientError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) DeleteAccount(ctx context.Context, id snowflake.ID) (bool, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return false, err
	}
	deleted, err := c.next.DeleteAccount(ctx, id)
	done(err == nil || isClientError(err))
	return deleted, err
}

func (c *circuitBreakMiddleware) Deposit(ctx context.Context, req ChargeReq) (*Account, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, err
	}
	acct, err := c.next.Deposit(ctx, req)
	done(err == nil || isClientError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Withdraw(ctx context.Context, req ChargeReq) (*Account, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, err
	}
	acct, err := c.next.Withdraw(ctx, req)
	done(err == nil || isClientError(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Statement(ctx context.Context, w io.Writer, id snowflake.ID) error {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return err
	}
	err = c.next.Statement(ctx, w, id)
	done(err == nil || isClientError(err))
	return err
}
