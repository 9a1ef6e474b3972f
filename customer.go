package bankacct

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CustomerValidator answers whether a customer exists in the customer
// microservice. Implementations are fail-closed: a transport failure,
// timeout, non-2xx status, or undecodable body all read as "does not
// exist". That policy is deliberate; do not layer retries inside an
// implementation without revisiting it.
type CustomerValidator interface {
	Exists(ctx context.Context, customerID int64) bool
}

type customerDoc struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type HTTPCustomerValidator struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

var (
	_ CustomerValidator = (*HTTPCustomerValidator)(nil)
)

func NewHTTPCustomerValidator(baseURL string, timeout time.Duration, log *zerolog.Logger) *HTTPCustomerValidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCustomerValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (v *HTTPCustomerValidator) Exists(ctx context.Context, customerID int64) bool {
	url := fmt.Sprintf("%s/customers/%d", v.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		v.log.Debug().Err(err).Int64("customer_id", customerID).Msg("customer lookup request build failed")
		return false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Debug().Err(err).Int64("customer_id", customerID).Msg("customer lookup failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false
	}
	var doc customerDoc
	if err = json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		v.log.Debug().Err(err).Int64("customer_id", customerID).Msg("customer lookup body decode failed")
		return false
	}

	return true
}
