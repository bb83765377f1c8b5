// Package plaid provides a bank feed backed by the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/service"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}

	return nil
}

// Client fetches bank transactions from Plaid. It implements the BankFeed
// interface.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *service.RetryOptions
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	client := plaid.NewAPIClient(configuration)

	return &Client{
		client:      client,
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions fetches transactions from Plaid within the specified date
// range.
func (c *Client) GetTransactions(ctx context.Context, start, end time.Time) ([]model.BankTransaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if start.After(end) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", start.Format("2006-01-02"),
		"end_date", end.Format("2006-01-02"))

	var allTransactions []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var plaidTransactions []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				start.Format("2006-01-02"),
				end.Format("2006-01-02"),
			)
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidError := extractPlaidError(err); plaidError != nil {
					return c.classifyPlaidError(plaidError)
				}
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			plaidTransactions = resp.GetTransactions()

			c.logger.Debug("Fetched transaction batch",
				"count", len(plaidTransactions),
				"offset", offset,
				"total", resp.GetTotalTransactions())

			return nil
		}, *c.retryOpts)

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, plaidTransactions...)

		if len(plaidTransactions) < int(pageSize) {
			break
		}

		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(allTransactions))

	transactions := make([]model.BankTransaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		transactions = append(transactions, c.mapPlaidTransaction(pt))
	}

	return transactions, nil
}

// GetAccounts fetches account IDs from Plaid.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	c.logger.Info("Fetching accounts from Plaid")

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				return c.classifyPlaidError(plaidError)
			}
			return fmt.Errorf("failed to fetch accounts: %w", err)
		}

		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}

	return accountIDs, nil
}

// mapPlaidTransaction converts a Plaid transaction to a bank transaction.
// Plaid amounts are signed (positive is money out); reconciliation matches on
// magnitude, so the sign is dropped here.
func (c *Client) mapPlaidTransaction(pt plaid.Transaction) model.BankTransaction {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now()
	}

	description := pt.GetMerchantName()
	if description == "" {
		description = pt.GetName()
	}
	description = strings.TrimSpace(description)

	amount := pt.GetAmount()
	if amount < 0 {
		amount = -amount
	}

	tx := model.BankTransaction{
		ID:          pt.GetTransactionId(),
		Date:        date,
		Description: description,
		AccountID:   pt.GetAccountId(),
		Amount:      amount,
		Source:      "plaid",
	}

	tx.Hash = tx.GenerateHash()

	return tx
}

// classifyPlaidError maps a Plaid API error onto the application's error
// taxonomy. Rate limits come back retryable; credential and account problems
// map to ErrInvalidAccount so callers can tell "fix your setup" apart from
// transient connection failures.
func (c *Client) classifyPlaidError(plaidError *plaid.PlaidError) error {
	switch plaidError.ErrorCode {
	case "RATE_LIMIT_EXCEEDED":
		c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
		return &common.RetryableError{Err: common.ErrPlaidRateLimit, Retryable: true}
	case "INVALID_ACCESS_TOKEN", "INVALID_ACCOUNT_ID", "ITEM_LOGIN_REQUIRED":
		return fmt.Errorf("%w: %s - %s", common.ErrInvalidAccount,
			plaidError.ErrorCode, plaidError.ErrorMessage)
	default:
		return fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection,
			plaidError.ErrorCode, plaidError.ErrorMessage)
	}
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements the BankFeed interface.
var _ service.BankFeed = (*Client)(nil)
