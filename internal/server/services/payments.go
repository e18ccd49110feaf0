package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/pwisniewski/hipokrates/internal/codec"
	"github.com/pwisniewski/hipokrates/internal/logging"
	"github.com/pwisniewski/hipokrates/internal/models"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

const (
	maxNotesLength = 1000
	// Timestamps are stored as text in this layout and compared as strings.
	dayLayout = "02.01.2006"
)

var maxPaymentAmount = decimal.NewFromInt(1_000_000)

// PaymentInput is one payment to append, amount still numeric.
type PaymentInput struct {
	UID         string
	Timestamp   string
	Description string
	Amount      decimal.Decimal
	Notes       string
}

// DailyStats aggregates the payments recorded on one calendar day.
type DailyStats struct {
	Count int
	Sum   decimal.Decimal
	// Latest is the lexicographic maximum of the raw timestamp strings,
	// not a calendar-aware comparison. For same-day fixed-width
	// timestamps the two coincide; across differing widths they may not.
	Latest string
}

// PaymentService appends payment records and serves date-bucketed queries
// over them.
type PaymentService struct {
	store  *storage.VersionedStore
	key    string
	logger logging.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewPaymentService(store *storage.VersionedStore, key string, logger logging.Logger) (*PaymentService, error) {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return &PaymentService{
		store:  store,
		key:    key,
		logger: logger.With("module", "payments"),
		loc:    loc,
		now:    time.Now,
	}, nil
}

// Append validates the payment and appends it to the payment history under
// optimistic concurrency. The full history is re-read and re-written with
// one row added; there is no per-row storage operation.
func (s *PaymentService) Append(ctx context.Context, in PaymentInput) (storage.WriteOutcome, error) {
	if err := validatePayment(in); err != nil {
		return 0, err
	}

	row := models.Payment{
		UID:         in.UID,
		Timestamp:   in.Timestamp,
		Description: in.Description,
		Amount:      strings.ReplaceAll(in.Amount.String(), ".", ","),
		Notes:       in.Notes,
	}

	return writeWithRetry(ctx, s.store, s.key, func(content []byte, _ bool) ([]byte, error) {
		existing, err := codec.DecodePayments(content)
		if err != nil {
			return nil, err
		}
		return codec.EncodePayments(append(existing, row))
	})
}

// StatsToday aggregates payments whose timestamp starts with today's date
// in the Warsaw timezone.
func (s *PaymentService) StatsToday(ctx context.Context) (DailyStats, error) {
	today := s.now().In(s.loc).Format(dayLayout)
	return s.statsFor(ctx, today)
}

// ByDate returns payments for the given day, newest first by raw timestamp
// string. The date is accepted as YYYY-MM-DD or YYYY.MM.DD and converted
// by positional field swap; no calendar validation is performed.
func (s *PaymentService) ByDate(ctx context.Context, date string) ([]models.Payment, error) {
	prefix := toDayPrefix(date)

	payments, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]models.Payment, 0)
	for _, p := range payments {
		if strings.HasPrefix(strings.TrimSpace(p.Timestamp), prefix) {
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp > matches[j].Timestamp
	})
	return matches, nil
}

func (s *PaymentService) statsFor(ctx context.Context, day string) (DailyStats, error) {
	payments, err := s.readAll(ctx)
	if err != nil {
		return DailyStats{}, err
	}

	stats := DailyStats{Sum: decimal.Zero}
	for _, p := range payments {
		ts := strings.TrimSpace(p.Timestamp)
		if ts == "" || !strings.HasPrefix(ts, day) {
			continue
		}
		stats.Count++

		// Unparseable amounts contribute zero, they are not an error.
		if d, err := decimal.NewFromString(strings.ReplaceAll(p.Amount, ",", ".")); err == nil {
			stats.Sum = stats.Sum.Add(d)
		}
		if ts > stats.Latest {
			stats.Latest = ts
		}
	}
	return stats, nil
}

func (s *PaymentService) readAll(ctx context.Context) ([]models.Payment, error) {
	rr, err := s.store.Read(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return codec.DecodePayments(rr.Content)
}

func validatePayment(in PaymentInput) error {
	if in.Amount.IsNegative() {
		return invalid("amount", "must be >= 0")
	}
	if in.Amount.GreaterThan(maxPaymentAmount) {
		return invalid("amount", "must not exceed 1000000")
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return invalid("notes", "must be at most 1000 characters")
	}
	for field, value := range map[string]string{
		"uid":         in.UID,
		"timestamp":   in.Timestamp,
		"description": in.Description,
		"notes":       in.Notes,
	} {
		if strings.ContainsAny(value, "\r\n") {
			return invalid(field, "must not contain line breaks")
		}
	}
	return nil
}

// toDayPrefix converts YYYY-MM-DD or YYYY.MM.DD into the stored DD.MM.YYYY
// form. Anything else passes through unchanged.
func toDayPrefix(date string) string {
	var parts []string
	switch {
	case strings.Contains(date, "-"):
		parts = strings.Split(date, "-")
	case strings.Contains(date, "."):
		parts = strings.Split(date, ".")
	}
	if len(parts) == 3 {
		return parts[2] + "." + parts[1] + "." + parts[0]
	}
	return date
}
