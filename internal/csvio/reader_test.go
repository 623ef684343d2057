package csvio

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payments_ledger/internal/domain"
)

type skippedRow struct {
	line int
	err  error
}

func readAll(t *testing.T, input string) ([]domain.Record, []skippedRow) {
	t.Helper()
	var skipped []skippedRow
	r := NewReader(strings.NewReader(input), WithInvalidRowHandler(func(line int, err error) {
		skipped = append(skipped, skippedRow{line: line, err: err})
	}))

	var recs []domain.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	assert.Equal(t, len(skipped), r.Skipped())
	return recs, skipped
}

func TestReader_ParsesAllRecordTypes(t *testing.T) {
	input := "type, client, tx, amount\n" +
		"deposit, 1, 1, 1.0\n" +
		"withdrawal, 1, 2, 0.5\n" +
		"dispute, 1, 1,\n" +
		"resolve, 1, 1\n" +
		"chargeback, 1, 1\n"

	recs, skipped := readAll(t, input)

	assert.Empty(t, skipped)
	require.Len(t, recs, 5)
	assert.Equal(t, domain.Deposit(1, 1, decimal.RequireFromString("1.0")).String(), recs[0].String())
	assert.Equal(t, domain.TypeWithdrawal, recs[1].Type)
	assert.True(t, recs[1].Amount.Decimal.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, domain.Dispute(1, 1), recs[2])
	assert.Equal(t, domain.Resolve(1, 1), recs[3])
	assert.Equal(t, domain.Chargeback(1, 1), recs[4])
}

func TestReader_HeaderColumnsInAnyOrder(t *testing.T) {
	recs, skipped := readAll(t, "client,amount,tx,type\n7,2.5,42,DEPOSIT\n")

	assert.Empty(t, skipped)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ClientID(7), recs[0].Client)
	assert.Equal(t, domain.TxID(42), recs[0].Tx)
	assert.Equal(t, domain.TypeDeposit, recs[0].Type)
	assert.Equal(t, "2.5", recs[0].Amount.Decimal.String())
}

func TestReader_WithoutHeader(t *testing.T) {
	recs, skipped := readAll(t, "deposit,3,9,10\n")

	assert.Empty(t, skipped)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ClientID(3), recs[0].Client)
}

func TestReader_SkipsMalformedRows(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,1.0\n" +
		"transfer,1,2,1.0\n" +
		"deposit,70000,3,1.0\n" +
		"deposit,1,-4,1.0\n" +
		"deposit,1,5,abc\n" +
		"deposit,1\n" +
		"\n" +
		"withdrawal,1,6,0.25\n"

	recs, skipped := readAll(t, input)

	require.Len(t, recs, 2)
	assert.Equal(t, domain.TxID(1), recs[0].Tx)
	assert.Equal(t, domain.TxID(6), recs[1].Tx)

	require.Len(t, skipped, 5)
	lines := make([]int, len(skipped))
	for i, s := range skipped {
		lines[i] = s.line
		assert.ErrorIs(t, s.err, ErrInvalidRow)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, lines)
}

func TestReader_MissingAmountIsLeftToTheLedger(t *testing.T) {
	recs, skipped := readAll(t, "type,client,tx,amount\ndeposit,1,1,\n")

	assert.Empty(t, skipped)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Amount.Valid)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestReader_PropagatesIOErrors(t *testing.T) {
	r := NewReader(failingReader{})

	_, err := r.Next()

	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "device unplugged")
}
