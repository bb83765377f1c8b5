package plaid

import (
	"testing"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateechai/docledger/internal/common"
)

func validConfig() Config {
	return Config{
		ClientID:    "client-id",
		Secret:      "secret",
		Environment: "sandbox",
		AccessToken: "access-token",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{
			name:   "valid sandbox config",
			mutate: func(_ *Config) {},
		},
		{
			name:   "valid production config",
			mutate: func(cfg *Config) { cfg.Environment = "production" },
		},
		{
			name:    "missing client ID",
			mutate:  func(cfg *Config) { cfg.ClientID = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing secret",
			mutate:  func(cfg *Config) { cfg.Secret = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing access token",
			mutate:  func(cfg *Config) { cfg.AccessToken = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing environment",
			mutate:  func(cfg *Config) { cfg.Environment = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "unknown environment",
			mutate:  func(cfg *Config) { cfg.Environment = "development" },
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestClassifyPlaidError(t *testing.T) {
	client, err := NewClient(validConfig())
	require.NoError(t, err)

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{
			name:    "rate limit is retryable",
			code:    "RATE_LIMIT_EXCEEDED",
			wantErr: common.ErrPlaidRateLimit,
		},
		{
			name:    "invalid access token",
			code:    "INVALID_ACCESS_TOKEN",
			wantErr: common.ErrInvalidAccount,
		},
		{
			name:    "invalid account ID",
			code:    "INVALID_ACCOUNT_ID",
			wantErr: common.ErrInvalidAccount,
		},
		{
			name:    "login required",
			code:    "ITEM_LOGIN_REQUIRED",
			wantErr: common.ErrInvalidAccount,
		},
		{
			name:    "anything else is a connection failure",
			code:    "INTERNAL_SERVER_ERROR",
			wantErr: common.ErrPlaidConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaidErr := &plaid.PlaidError{ErrorCode: tt.code, ErrorMessage: "details"}
			mapped := client.classifyPlaidError(plaidErr)
			assert.ErrorIs(t, mapped, tt.wantErr)
		})
	}

	rateLimited := client.classifyPlaidError(&plaid.PlaidError{ErrorCode: "RATE_LIMIT_EXCEEDED"})
	assert.True(t, common.IsRetryable(rateLimited))
	assert.False(t, common.IsRetryable(client.classifyPlaidError(&plaid.PlaidError{ErrorCode: "INVALID_ACCESS_TOKEN"})))
}

func TestMapPlaidTransaction(t *testing.T) {
	client, err := NewClient(validConfig())
	require.NoError(t, err)

	pt := plaid.Transaction{}
	pt.SetTransactionId("txn-1")
	pt.SetAccountId("acct-1")
	pt.SetDate("2024-01-15")
	pt.SetAmount(1070.00) // Plaid: positive is money out
	pt.SetName("TRUE INTERNET CORPORATION CO LTD")
	pt.SetMerchantName("True Internet")

	tx := client.mapPlaidTransaction(pt)
	assert.Equal(t, "txn-1", tx.ID)
	assert.Equal(t, "acct-1", tx.AccountID)
	assert.Equal(t, "True Internet", tx.Description, "merchant name preferred over raw name")
	assert.Equal(t, 1070.00, tx.Amount)
	assert.Equal(t, "plaid", tx.Source)
	assert.Equal(t, "2024-01-15", tx.Date.Format("2006-01-02"))
	assert.NotEmpty(t, tx.Hash)
}

func TestMapPlaidTransactionFallbacks(t *testing.T) {
	client, err := NewClient(validConfig())
	require.NoError(t, err)

	pt := plaid.Transaction{}
	pt.SetTransactionId("txn-2")
	pt.SetAccountId("acct-1")
	pt.SetDate("2024-01-16")
	pt.SetAmount(-5000.00) // refunds come through negative
	pt.SetName("  PEA ELECTRICITY  ")

	tx := client.mapPlaidTransaction(pt)
	assert.Equal(t, "PEA ELECTRICITY", tx.Description, "falls back to name, trimmed")
	assert.Equal(t, 5000.00, tx.Amount, "sign dropped for magnitude matching")
}
