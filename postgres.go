package bankacct

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	pgSelectAcctSQL = `
		SELECT id, account_number, balance, account_type, customer_id
		FROM bank_accounts
		WHERE id = $1;
	`

	pgSelectForUpdateAcctSQL = `
		SELECT id, account_number, balance, account_type, customer_id
		FROM bank_accounts
		WHERE id = $1
		FOR UPDATE;
	`

	pgSelectAllAcctSQL = `
		SELECT id, account_number, balance, account_type, customer_id
		FROM bank_accounts;
	`

	pgSelectByCustomerSQL = `
		SELECT id, account_number, balance, account_type, customer_id
		FROM bank_accounts
		WHERE customer_id = $1;
	`

	pgUpsertAcctSQL = `
		INSERT INTO bank_accounts (id, account_number, balance, account_type, customer_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    account_type = EXCLUDED.account_type,
		    customer_id = EXCLUDED.customer_id;
	`

	pgUpdateAcctSQL = `
		UPDATE bank_accounts
		SET balance = $1, account_type = $2, customer_id = $3
		WHERE id = $4;
	`

	pgDeleteAcctSQL = `
		DELETE FROM bank_accounts
		WHERE id = $1;
	`

	pgExistsByCustomerSQL = `
		SELECT EXISTS (SELECT 1 FROM bank_accounts WHERE customer_id = $1);
	`

	pgExistsByAcctNumSQL = `
		SELECT EXISTS (SELECT 1 FROM bank_accounts WHERE account_number = $1);
	`
)

const pgUniqueViolation = "23505"

type PostgresEndpoint struct {
	pool *pgxpool.Pool
	node *snowflake.Node
	log  *zerolog.Logger
}

var (
	_ Repository = (*PostgresEndpoint)(nil)
)

func NewPostgresEndpoint(connStr string, log *zerolog.Logger) (*PostgresEndpoint, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	endpt := &PostgresEndpoint{
		pool: pool,
		node: node,
		log:  log,
	}
	return endpt, err
}

func (pg *PostgresEndpoint) Save(ctx context.Context, acct *Account) (*Account, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if acct.ID == 0 {
		acct.ID = pg.node.Generate()
	}
	_, err = conn.Exec(ctx, pgUpsertAcctSQL,
		acct.ID, acct.AccountNumber, acct.Balance, acct.AccountType, acct.CustomerID)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation {
			return nil, ErrBadRequest{Fields: map[string]string{"accountNumber": "already exists"}}
		}
		return nil, err
	}

	return acct, nil
}

func (pg *PostgresEndpoint) FindByID(ctx context.Context, id snowflake.ID) (*Account, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	acct, err := scanAccount(conn.QueryRow(ctx, pgSelectAcctSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound{ID: id.Int64()}
		}
		return nil, err
	}
	return acct, err
}

func (pg *PostgresEndpoint) FindAll(ctx context.Context) ([]Account, error) {
	return pg.queryAccounts(ctx, pgSelectAllAcctSQL)
}

func (pg *PostgresEndpoint) FindByCustomerID(ctx context.Context, customerID int64) ([]Account, error) {
	return pg.queryAccounts(ctx, pgSelectByCustomerSQL, customerID)
}

func (pg *PostgresEndpoint) ExistsByCustomerID(ctx context.Context, customerID int64) (bool, error) {
	return pg.exists(ctx, pgExistsByCustomerSQL, customerID)
}

func (pg *PostgresEndpoint) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	return pg.exists(ctx, pgExistsByAcctNumSQL, accountNumber)
}

func (pg *PostgresEndpoint) Delete(ctx context.Context, id snowflake.ID) (bool, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	ct, err := conn.Exec(ctx, pgDeleteAcctSQL, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Mutate holds a row lock across the read-validate-write so concurrent
// charges against one account serialize and lost updates are impossible.
func (pg *PostgresEndpoint) Mutate(ctx context.Context, id snowflake.ID, fn func(*Account) error) (*Account, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			pg.log.Err(rerr).Int64("acct_id", id.Int64()).Msg("mutate rollback fail")
		}
	}()

	acct, err := scanAccount(tx.QueryRow(ctx, pgSelectForUpdateAcctSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound{ID: id.Int64()}
		}
		return nil, err
	}

	if err = fn(acct); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, pgUpdateAcctSQL, acct.Balance, acct.AccountType, acct.CustomerID, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return acct, nil
}

func (pg *PostgresEndpoint) queryAccounts(ctx context.Context, sql string, args ...any) ([]Account, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accts = append(accts, *acct)
	}
	return accts, rows.Err()
}

func (pg *PostgresEndpoint) exists(ctx context.Context, sql string, arg any) (bool, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	var found bool
	if err = conn.QueryRow(ctx, sql, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		rid   int64
		rnum  string
		rbal  decimal.Decimal
		rtyp  string
		rcust int64
	)
	if err := row.Scan(&rid, &rnum, &rbal, &rtyp, &rcust); err != nil {
		return nil, err
	}
	return &Account{
		ID:            snowflake.ID(rid),
		AccountNumber: rnum,
		Balance:       rbal,
		AccountType:   AccountType(rtyp),
		CustomerID:    rcust,
	}, nil
}
