// Package models defines the two record kinds the service persists:
// catalog entries and payments. Both are stored as delimited text rows,
// so every field is kept in its textual form.
package models

// CatalogEntry is one raw row of the price catalog, exactly as stored.
//
// Code is a decimal integer or empty. Amount uses comma as the decimal
// separator ("12,50") or is empty. Amount2 is free-form text.
type CatalogEntry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Amount2 string `json:"amount2"`
}

// CatalogItem is the read view of a catalog entry returned by list and
// search operations: the stored amount plus its parsed numeric value.
type CatalogItem struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	AmountRaw string  `json:"amount_raw"`
}
