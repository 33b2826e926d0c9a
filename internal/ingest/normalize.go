// Package ingest reads tabular sales rows and maps them onto raw records.
package ingest

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// Field is a canonical raw-record column.
type Field int

// Canonical columns.
const (
	FieldCreatedTime Field = iota
	FieldSender
	FieldOrderID
	FieldItem
)

// Synonyms lists accepted source headers per canonical column, in priority order.
var Synonyms = map[Field][]string{
	FieldCreatedTime: {"created_time"},
	FieldSender:      {"sender", "buyer_name"},
	FieldOrderID:     {"order_id"},
	FieldItem:        {"item", "items"},
}

// Normalize maps a header→value row onto a RawRecord. Missing columns become "".
func Normalize(row map[string]string) model.RawRecord {
	keys := sortedKeys(row)
	return model.RawRecord{
		CreatedTime: strings.TrimSpace(lookup(row, keys, Synonyms[FieldCreatedTime])),
		Sender:      strings.TrimSpace(lookup(row, keys, Synonyms[FieldSender])),
		OrderID:     strings.TrimSpace(lookup(row, keys, Synonyms[FieldOrderID])),
		Item:        UnescapeItem(lookup(row, keys, Synonyms[FieldItem])),
	}
}

// NormalizeAll maps every row; the result has one record per row.
func NormalizeAll(rows []map[string]string) []model.RawRecord {
	out := make([]model.RawRecord, len(rows))
	for i, row := range rows {
		out[i] = Normalize(row)
	}
	return out
}

func lookup(row map[string]string, keys []string, synonyms []string) string {
	for _, syn := range synonyms {
		if v, ok := row[syn]; ok {
			return v
		}
	}
	for _, syn := range synonyms {
		want := headerKey(syn)
		for _, k := range keys {
			if headerKey(k) == want {
				return row[k]
			}
		}
	}
	return ""
}

// headerKey folds case and treats runs of spaces, underscores and dashes as one separator.
func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	b.Grow(len(h))
	sep := false
	for _, r := range h {
		switch r {
		case ' ', '_', '-', '\t':
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnescapeItem undoes CSV double-encoding of the item JSON: doubled quotes,
// carriage returns and a wrapping pair of quotes. Text that is already valid
// JSON is left untouched apart from carriage returns.
func UnescapeItem(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)
	if s == "" || json.Valid([]byte(s)) {
		return s
	}
	s = strings.ReplaceAll(s, `""`, `"`)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if json.Valid([]byte(inner)) {
			return inner
		}
	}
	return s
}
