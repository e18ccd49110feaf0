// Package codec serializes catalog entries and payments to the persisted
// delimited-text format: UTF-8, ';' as the field delimiter, and a fixed
// header naming the columns in the first row.
//
// Decoding is header-driven and tolerant: columns may appear in any order,
// missing columns yield empty fields, unknown columns are ignored.
// Encoding refuses fields containing line breaks.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/pwisniewski/hipokrates/internal/models"
)

const Delimiter = ';'

var (
	catalogHeader = []string{"code", "name", "amount", "amount2"}
	paymentHeader = []string{"uid", "timestamp", "description", "amount", "notes"}

	ErrLineBreak = errors.New("field contains a line break")
)

// DecodeCatalog parses the catalog blob. Empty or absent content yields an
// empty slice.
func DecodeCatalog(data []byte) ([]models.CatalogEntry, error) {
	rows, idx, err := decode(data)
	if err != nil {
		return nil, err
	}

	entries := make([]models.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.CatalogEntry{
			Code:    field(row, idx, "code"),
			Name:    field(row, idx, "name"),
			Amount:  field(row, idx, "amount"),
			Amount2: field(row, idx, "amount2"),
		})
	}
	return entries, nil
}

// EncodeCatalog renders entries with the fixed catalog header.
func EncodeCatalog(entries []models.CatalogEntry) ([]byte, error) {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{e.Code, e.Name, e.Amount, e.Amount2})
	}
	return encode(catalogHeader, records)
}

// DecodePayments parses the payments blob. Empty or absent content yields
// an empty slice.
func DecodePayments(data []byte) ([]models.Payment, error) {
	rows, idx, err := decode(data)
	if err != nil {
		return nil, err
	}

	payments := make([]models.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, models.Payment{
			UID:         field(row, idx, "uid"),
			Timestamp:   field(row, idx, "timestamp"),
			Description: field(row, idx, "description"),
			Amount:      field(row, idx, "amount"),
			Notes:       field(row, idx, "notes"),
		})
	}
	return payments, nil
}

// EncodePayments renders payments with the fixed payment header.
func EncodePayments(payments []models.Payment) ([]byte, error) {
	records := make([][]string, 0, len(payments))
	for _, p := range payments {
		records = append(records, []string{p.UID, p.Timestamp, p.Description, p.Amount, p.Notes})
	}
	return encode(paymentHeader, records)
}

func decode(data []byte) ([][]string, map[string]int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	// Strip a UTF-8 BOM left behind by spreadsheet exports.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return records[1:], idx, nil
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func encode(header []string, records [][]string) ([]byte, error) {
	for _, row := range records {
		for _, f := range row {
			if strings.ContainsAny(f, "\r\n") {
				return nil, ErrLineBreak
			}
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = Delimiter

	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
