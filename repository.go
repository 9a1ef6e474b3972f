package bankacct

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository is the durable store for accounts and the single source of
// truth between operations. Implementations assign an ID on first save and
// guarantee that Mutate's read-validate-write runs under a per-row lock so
// concurrent charges against one account serialize; operations on distinct
// accounts never contend.
type Repository interface {
	Save(ctx context.Context, acct *Account) (*Account, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	FindByCustomerID(ctx context.Context, customerID int64) ([]Account, error)
	ExistsByCustomerID(ctx context.Context, customerID int64) (bool, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	// Delete is idempotent: removing an absent account returns (false, nil).
	Delete(ctx context.Context, id snowflake.ID) (bool, error)
	// Mutate loads the account under a row lock, applies fn, and persists
	// the result in the same transaction. An error from fn rolls back with
	// no observable partial write.
	Mutate(ctx context.Context, id snowflake.ID, fn func(*Account) error) (*Account, error)
}
