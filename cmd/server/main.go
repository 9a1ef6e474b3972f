package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/bankacct-go/bankacct"
	"gopkg.in/yaml.v3"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg bankacct.Config
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening config file")
	}
	if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("error decoding config file")
	}

	pgendpt, err := bankacct.NewPostgresEndpoint(cfg.Database.ConnectionString, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database")
	}

	customers := bankacct.NewHTTPCustomerValidator(
		cfg.Customers.BaseURL,
		time.Duration(cfg.Customers.TimeoutSeconds)*time.Second,
		&logger,
	)

	var svc bankacct.Service = bankacct.NewService(pgendpt, customers, &logger)
	// Innermost first: breaker wraps the core, limiter wraps the breaker,
	// validation runs before everything else.
	for _, mw := range []bankacct.Middleware{
		bankacct.NewCircuitBreakMiddleware(bankacct.NewServiceBreaker()),
		bankacct.NewLimitMiddleware(bankacct.NewServiceLimits(&cfg)),
		bankacct.NewValidationMiddleware(),
	} {
		svc = mw(svc)
	}
	hndlr := bankacct.NewHTTPHandler(svc, &logger)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":3000"
	}
	logger.Info().Str("addr", addr).Msg("listening")
	if err = http.ListenAndServe(addr, hndlr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
