// Package services contains the server-side business logic: the catalog
// and payment operations driving the versioned store through the
// conflict-retry controller.
package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pwisniewski/hipokrates/internal/codec"
	"github.com/pwisniewski/hipokrates/internal/logging"
	"github.com/pwisniewski/hipokrates/internal/models"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

var maxCatalogAmount = decimal.NewFromInt(10000)

// CatalogService serves lookups over the price catalog and validated
// replace-all saves with optimistic concurrency.
type CatalogService struct {
	store  *storage.VersionedStore
	key    string
	logger logging.Logger
}

func NewCatalogService(store *storage.VersionedStore, key string, logger logging.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		key:    key,
		logger: logger.With("module", "catalog"),
	}
}

// List returns all entries with a non-empty name, ordered by
// case-insensitive name.
func (s *CatalogService) List(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := s.readItems(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// Search returns entries whose name contains the query, case-insensitively.
// An empty query yields an empty result set, not the full catalog.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.CatalogItem{}, nil
	}

	items, err := s.readItems(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			results = append(results, item)
		}
	}
	return results, nil
}

// Rows returns every stored row unmodified, for the edit view. The version
// token is deliberately ignored; the save path re-reads it.
func (s *CatalogService) Rows(ctx context.Context) ([]models.CatalogEntry, error) {
	rr, err := s.store.Read(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return codec.DecodeCatalog(rr.Content)
}

// Save validates rows and replaces the whole catalog blob under optimistic
// concurrency. Validation failures abort before any write attempt.
func (s *CatalogService) Save(ctx context.Context, rows []models.CatalogEntry) (storage.WriteOutcome, error) {
	valid, err := validateCatalog(rows)
	if err != nil {
		return 0, err
	}

	content, err := codec.EncodeCatalog(valid)
	if err != nil {
		return 0, err
	}

	// The catalog save is a replace-all: the current content only matters
	// for the version token the store read picks up.
	return writeWithRetry(ctx, s.store, s.key, func([]byte, bool) ([]byte, error) {
		return content, nil
	})
}

// validateCatalog normalizes each row and enforces the field constraints.
// Rows with a blank name are dropped, not rejected; all other failures
// reject the whole payload with a field-scoped error.
func validateCatalog(rows []models.CatalogEntry) ([]models.CatalogEntry, error) {
	valid := make([]models.CatalogEntry, 0, len(rows))
	seenCodes := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		code, err := normalizeCode(row.Code)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSpace(row.Name)
		if strings.ContainsAny(name, "\r\n") {
			return nil, invalid("name", "must not contain line breaks")
		}

		amount, err := normalizeAmount(row.Amount)
		if err != nil {
			return nil, err
		}

		if strings.ContainsAny(row.Amount2, "\r\n") {
			return nil, invalid("amount2", "must not contain line breaks")
		}

		if name == "" {
			// An empty row is a no-op, not an error.
			continue
		}

		if code != "" {
			if _, dup := seenCodes[code]; dup {
				return nil, invalid("code", "must be unique for every entry")
			}
			seenCodes[code] = struct{}{}
		}

		valid = append(valid, models.CatalogEntry{
			Code:    code,
			Name:    name,
			Amount:  amount,
			Amount2: row.Amount2,
		})
	}

	return valid, nil
}

// normalizeCode turns a code into canonical decimal text. Blank is valid
// and normalizes to the empty string.
func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return "", invalid("code", "must be an integer")
	}
	if n < 0 {
		return "", invalid("code", "must be an integer >= 0")
	}
	return strconv.Itoa(n), nil
}

// normalizeAmount validates a comma-or-dot decimal in [0, 10000] and
// returns it with comma as the separator, preserving the caller's digits
// ("12,50" stays "12,50", never "12,5").
func normalizeAmount(amount string) (string, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", nil
	}

	dotted := strings.ReplaceAll(amount, ",", ".")
	d, err := decimal.NewFromString(dotted)
	if err != nil {
		return "", invalid("amount", "must be a number")
	}
	if d.IsNegative() || d.GreaterThan(maxCatalogAmount) {
		return "", invalid("amount", "must be between 0 and 10000")
	}
	return strings.ReplaceAll(dotted, ".", ","), nil
}

func (s *CatalogService) readItems(ctx context.Context) ([]models.CatalogItem, error) {
	rr, err := s.store.Read(ctx, s.key)
	if err != nil {
		return nil, err
	}

	entries, err := codec.DecodeCatalog(rr.Content)
	if err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(e.Amount)
		items = append(items, models.CatalogItem{
			Code:      strings.TrimSpace(e.Code),
			Name:      name,
			Amount:    parsePrice(raw),
			AmountRaw: raw,
		})
	}
	return items, nil
}

// parsePrice converts stored amount text ("12,50") to a float for read
// views. Unparseable text yields zero, matching the lenient read path.
func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
