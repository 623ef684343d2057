package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/engine"
	"payments_ledger/pkg/validator"
)

var _ engine.Source = (*Reader)(nil)

// ErrInvalidRow marks a row that could not be turned into a record.
var ErrInvalidRow = errors.New("invalid row")

var defaultColumns = []string{"type", "client", "tx", "amount"}

// row is the textual shape of one input line before conversion.
type row struct {
	Type   string `validate:"required,oneof=deposit withdrawal dispute resolve chargeback"`
	Client string `validate:"required,numeric"`
	Tx     string `validate:"required,numeric"`
	Amount string
}

type Option func(*Reader)

// WithInvalidRowHandler is called for every row that is skipped. line is the
// 1-based line number in the input.
func WithInvalidRowHandler(fn func(line int, err error)) Option {
	return func(r *Reader) {
		if fn != nil {
			r.onInvalid = fn
		}
	}
}

// Reader yields records from CSV input. A header row is optional; when
// present it may list the columns in any order. Fields are trimmed and rows
// may omit trailing fields. Malformed rows are reported and skipped, so Next
// only fails on I/O errors.
type Reader struct {
	csv       *csv.Reader
	columns   map[string]int
	started   bool
	skipped   int
	onInvalid func(line int, err error)
}

func NewReader(r io.Reader, opts ...Option) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	reader := &Reader{
		csv:       cr,
		onInvalid: func(int, error) {},
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Skipped returns how many rows were rejected so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Next returns the next valid record, or io.EOF at the end of input.
func (r *Reader) Next() (domain.Record, error) {
	for {
		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return domain.Record{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.invalid(parseErr.StartLine, fmt.Errorf("%w: %w", ErrInvalidRow, parseErr.Err))
			continue
		}
		if err != nil {
			return domain.Record{}, fmt.Errorf("read csv: %w", err)
		}

		line, _ := r.csv.FieldPos(0)
		if blank(fields) {
			continue
		}

		if !r.started {
			r.started = true
			if r.readHeader(fields) {
				continue
			}
			r.useColumns(defaultColumns)
		}

		rec, err := r.parse(fields)
		if err != nil {
			r.invalid(line, err)
			continue
		}
		return rec, nil
	}
}

func (r *Reader) invalid(line int, err error) {
	r.skipped++
	r.onInvalid(line, err)
}

// readHeader installs the column mapping from fields and reports whether
// fields was a header row.
func (r *Reader) readHeader(fields []string) bool {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimSpace(f))
	}
	if !slices.Contains(names, "type") {
		return false
	}
	r.useColumns(names)
	return true
}

func (r *Reader) useColumns(names []string) {
	r.columns = make(map[string]int, len(names))
	for i, name := range names {
		r.columns[name] = i
	}
}

func (r *Reader) field(fields []string, name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (r *Reader) parse(fields []string) (domain.Record, error) {
	raw := row{
		Type:   strings.ToLower(r.field(fields, "type")),
		Client: r.field(fields, "client"),
		Tx:     r.field(fields, "tx"),
		Amount: r.field(fields, "amount"),
	}
	if err := validator.Struct(raw); err != nil {
		return domain.Record{}, fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}

	typ, err := domain.ParseTransactionType(raw.Type)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}
	client, err := strconv.ParseUint(raw.Client, 10, 16)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: client %q: %w", ErrInvalidRow, raw.Client, err)
	}
	tx, err := strconv.ParseUint(raw.Tx, 10, 32)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: tx %q: %w", ErrInvalidRow, raw.Tx, err)
	}

	rec := domain.Record{Type: typ, Client: domain.ClientID(client), Tx: domain.TxID(tx)}
	if raw.Amount != "" {
		amount, err := decimal.NewFromString(raw.Amount)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%w: amount %q: %w", ErrInvalidRow, raw.Amount, err)
		}
		rec.Amount = decimal.NewNullDecimal(amount)
	}
	return rec, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
