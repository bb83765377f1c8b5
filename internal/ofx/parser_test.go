package ofx

import (
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>THB
<BANKACCTFROM>
<BANKID>004
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-1070.00
<FITID>2024011501
<NAME>TRUE INTERNET CORPORATION
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-535.00
<FITID>2024012001
<NAME>ACH DEBIT PEA ELECTRICITY
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>5000.00
<FITID>2024012501
<NAME>TRANSFER FROM SAVINGS
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>10000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>THB
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>LAZADA.CO.TH*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			transactions, err := parser.ParseFile(strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	tx1 := transactions[0]
	assert.Equal(t, "2024011501", tx1.ID)
	assert.Equal(t, "TRUE INTERNET CORPORATION", tx1.Description)
	assert.Equal(t, 1070.00, tx1.Amount)
	assert.Equal(t, "1234567890", tx1.AccountID)
	assert.Equal(t, "ofx", tx1.Source)
	assert.NotEmpty(t, tx1.Hash)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2024, tx1.Date.Year())
	assert.Equal(t, time.January, tx1.Date.Month())
	assert.Equal(t, 15, tx1.Date.Day())

	// Bank prefix stripped from the description.
	tx2 := transactions[1]
	assert.Equal(t, "PEA ELECTRICITY", tx2.Description)
	assert.Equal(t, 535.00, tx2.Amount)

	// Credits keep their magnitude too.
	tx3 := transactions[2]
	assert.Equal(t, "SAVINGS", tx3.Description)
	assert.Equal(t, 5000.00, tx3.Amount)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "CC2024011001", tx1.ID)
	assert.Equal(t, "LAZADA.CO.TH*RT4Y7HG2", tx1.Description)
	assert.Equal(t, 45.99, tx1.Amount)
	assert.Equal(t, "4111111111111111", tx1.AccountID)

	tx2 := transactions[1]
	assert.Equal(t, "NETFLIX.COM", tx2.Description)
	assert.Equal(t, 15.00, tx2.Amount)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "mixed-case severity uppercased",
			input:    "<SEVERITY>Info</SEVERITY>",
			expected: "<SEVERITY>INFO</SEVERITY>",
		},
		{
			name:     "missing closing bracket added",
			input:    "<BANKMSGSRSV1\n<STMTTRNRS",
			expected: "<BANKMSGSRSV1>\n<STMTTRNRS>",
		},
		{
			name:     "well-formed tags untouched",
			input:    "<CODE>0\n<SEVERITY>INFO",
			expected: "<CODE>0\n<SEVERITY>INFO",
		},
		{
			name:     "leading whitespace trimmed",
			input:    "\n\n  OFXHEADER:100",
			expected: "OFXHEADER:100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.preprocessOFX(tt.input))
		})
	}
}

func TestExtractDescription(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE TRUE INTERNET",
			expected: "TRUE INTERNET",
		},
		{
			name:     "remove transfer prefix",
			input:    "TRANSFER TO 1234567890",
			expected: "1234567890",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  LAZADA.CO.TH  ",
			expected: "LAZADA.CO.TH",
		},
		{
			name:     "strip leading date pattern",
			input:    "01/15 TRUE INTERNET",
			expected: "TRUE INTERNET",
		},
		{
			name:     "generic name falls back to memo",
			input:    "DEBIT",
			memo:     "TRUE INTERNET CORPORATION",
			expected: "TRUE INTERNET CORPORATION",
		},
		{
			name:     "specific name ignores memo",
			input:    "NETFLIX.COM",
			memo:     "CARD 1234",
			expected: "NETFLIX.COM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractDescription(tx))
		})
	}
}

func TestExtractDescriptionPrefersPayee(t *testing.T) {
	parser := NewParser()

	tx := ofxgo.Transaction{
		Name: ofxgo.String("POS PURCHASE 7112"),
		Payee: &ofxgo.Payee{
			Name: ofxgo.String("True Internet Corporation"),
		},
	}
	assert.Equal(t, "True Internet Corporation", parser.extractDescription(tx))
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.GetAccounts(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Contains(t, accounts, "1234567890")

	accounts, err = parser.GetAccounts(strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Contains(t, accounts, "4111111111111111")
}
