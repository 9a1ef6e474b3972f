package bankacct

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type accountJSONReq struct {
	CustomerID  int64           `json:"customerId"`
	AccountType string          `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
}

func NewHTTPHandler(svc Service, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc: svc,
		Log: log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Route("/accounts", func(r chi.Router) {
		r.Post("/", hndlr.Create)
		r.Get("/", hndlr.List)
		r.Route("/customer/{customerID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.ListByCustomer)
			rr.Head("/", hndlr.CustomerHasAccounts)
		})
		r.Route("/{acctID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.Get)
			rr.Put("/", hndlr.Update)
			rr.Delete("/", hndlr.Delete)
			rr.Put("/deposit", hndlr.Deposit)
			rr.Put("/withdraw", hndlr.Withdraw)
			rr.Get("/statement", hndlr.Statement)
		})
	})

	return mux
}

type httpHandler struct {
	Svc Service
	Log *zerolog.Logger
}

func (h *httpHandler) Create(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "create").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var jreq accountJSONReq
	if err = json.Unmarshal(buf, &jreq); err != nil {
		h.Log.Err(err).Str("method", "create").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	typ, err := ParseAccountType(jreq.AccountType)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	acct, err := h.Svc.CreateAccount(r.Context(), CreateAccountReq{
		CustomerID:  jreq.CustomerID,
		AccountType: typ,
		Balance:     jreq.Balance,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "create").Msg("error encoding response")
	}
}

func (h *httpHandler) List(w http.ResponseWriter, r *http.Request) {
	accts, err := h.Svc.GetAllAccounts(r.Context())
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(accts); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Get(w http.ResponseWriter, r *http.Request) {
	acctID, err := acctIDParam(r)
	if err != nil {
		h.Log.Err(err).Str("method", "get").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	acct, err := h.Svc.GetAccount(r.Context(), acctID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Update(w http.ResponseWriter, r *http.Request) {
	acctID, err := acctIDParam(r)
	if err != nil {
		h.Log.Err(err).Str("method", "update").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "update").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var jreq accountJSONReq
	if err = json.Unmarshal(buf, &jreq); err != nil {
		h.Log.Err(err).Str("method", "update").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	typ, err := ParseAccountType(jreq.AccountType)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	acct, err := h.Svc.UpdateAccount(r.Context(), acctID, UpdateAccountReq{
		CustomerID:  jreq.CustomerID,
		AccountType: typ,
		Balance:     jreq.Balance,
	})
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Delete(w http.ResponseWriter, r *http.Request) {
	acctID, err := acctIDParam(r)
	if err != nil {
		h.Log.Err(err).Str("method", "delete").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	// Idempotent: deleting an absent account is still a 204.
	if _, err = h.Svc.DeleteAccount(r.Context(), acctID); err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	req, err := chargeReqParams(r)
	if err != nil {
		h.Log.Err(err).Str("method", "deposit").Msg("error parsing charge params")
		WriteHTTPError(w, err)
		return
	}
	acct, err := h.Svc.Deposit(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, err := chargeReqParams(r)
	if err != nil {
		h.Log.Err(err).Str("method", "withdraw").Msg("error parsing charge params")
		WriteHTTPError(w, err)
		return
	}
	acct, err := h.Svc.Withdraw(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDParam(r)
	if err != nil {
		h.Log.Err(err).Str("method", "list_by_customer").Msg("error parsing customer ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"customerID": "invalid format"}})
		return
	}
	accts, err := h.Svc.GetAccountsByCustomer(r.Context(), customerID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(accts); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) CustomerHasAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	has, err := h.Svc.CustomerHasAccounts(r.Context(), customerID)
	if err != nil {
		h.Log.Err(err).Str("method", "customer_has_accounts").Msg("error checking customer accounts")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !has {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	acctID, err := acctIDParam(r)
	if err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if err = h.Svc.Statement(r.Context(), w, acctID); err != nil {
		WriteHTTPError(w, err)
	}
}

func acctIDParam(r *http.Request) (snowflake.ID, error) {
	return snowflake.ParseString(chi.URLParam(r, "acctID"))
}

func customerIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
}

func chargeReqParams(r *http.Request) (ChargeReq, error) {
	var req ChargeReq
	acctID, err := acctIDParam(r)
	if err != nil {
		return req, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}}
	}
	raw := r.URL.Query().Get("amount")
	if raw == "" {
		return req, ErrBadRequest{Fields: map[string]string{"amount": "missing"}}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return req, ErrBadRequest{Fields: map[string]string{"amount": "invalid format"}}
	}
	req.AcctID = acctID
	req.Amount = amount
	return req, nil
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	errnf := &ErrNotFound{}
	errbr := &ErrBadRequest{}
	errrv := &ErrRuleViolation{}
	errnr := &ErrNoRule{}
	if errors.As(err, errnf) {
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(errnf)
	} else if errors.As(err, errbr) {
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	} else if errors.As(err, errrv) {
		w.WriteHeader(http.StatusConflict)
		ne = json.NewEncoder(w).Encode(errrv)
	} else if errors.As(err, errnr) {
		log.Error().Err(err).Msg("withdrawal rule configuration defect")
		w.WriteHeader(http.StatusInternalServerError)
		resp := map[string]string{
			"message": "server error",
		}
		ne = json.NewEncoder(w).Encode(resp)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
		resp := map[string]string{
			"message": "server error",
		}
		ne = json.NewEncoder(w).Encode(resp)
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
