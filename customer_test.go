package bankacct_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	bankacct "github.com/bankacct-go/bankacct"
)

func TestHTTPCustomerValidatorExists(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("a 2xx with a customer body means the customer exists", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			as.Equal("/customers/7", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":7,"firstName":"Ada","lastName":"Lovelace","email":"ada@math.org"}`))
		}))
		defer srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, time.Second, &nooplog)
		as.True(v.Exists(context.Background(), 7))
	})

	t.Run("a 404 means the customer does not exist", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, time.Second, &nooplog)
		as.False(v.Exists(context.Background(), 999))
	})

	t.Run("a 5xx reads as not existing", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, time.Second, &nooplog)
		as.False(v.Exists(context.Background(), 7))
	})

	t.Run("a malformed body reads as not existing", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":`))
		}))
		defer srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, time.Second, &nooplog)
		as.False(v.Exists(context.Background(), 7))
	})

	t.Run("a timeout reads as not existing", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, 50*time.Millisecond, &nooplog)
		as.False(v.Exists(context.Background(), 7))
	})

	t.Run("an unreachable service reads as not existing", func(tt *testing.T) {
		as := assert.New(tt)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		v := bankacct.NewHTTPCustomerValidator(srv.URL, time.Second, &nooplog)
		as.False(v.Exists(context.Background(), 7))
	})
}
