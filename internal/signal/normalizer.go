// Package signal turns loosely formatted signal records into typed models.Signal values.
package signal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/signal-backtest/internal/models"
)

// RawRecord is one input row keyed by its column header
type RawRecord struct {
	Row    int
	Fields map[string]string
}

type slot struct {
	field Field
	leg   int
}

// Normalizer resolves raw records into signals using a fixed alias table
type Normalizer struct {
	aliases  map[slot][]string
	location *time.Location
	validate *validator.Validate
}

// NewNormalizer creates a normalizer. A nil alias list selects DefaultAliases and a
// nil location selects UTC for timestamps without a zone.
func NewNormalizer(aliases []FieldAlias, loc *time.Location) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if loc == nil {
		loc = time.UTC
	}

	resolved := make(map[slot][]string, len(aliases))
	for _, alias := range aliases {
		key := slot{field: alias.Field, leg: alias.Leg}
		for _, name := range alias.Names {
			resolved[key] = append(resolved[key], normalizeHeader(name))
		}
	}

	return &Normalizer{
		aliases:  resolved,
		location: loc,
		validate: validator.New(),
	}
}

// Normalize maps a raw record onto a Signal. On failure the partially resolved
// signal is still returned so the caller can identify the record.
func (n *Normalizer) Normalize(record RawRecord) (models.Signal, error) {
	fields := make(map[string]string, len(record.Fields))
	for k, v := range record.Fields {
		fields[normalizeHeader(k)] = v
	}

	sig := models.Signal{
		Row:       record.Row,
		Symbol:    strings.ToUpper(strings.TrimSpace(n.lookup(fields, FieldSymbol, 0))),
		Direction: ParseDirection(n.lookup(fields, FieldDirection, 0)),
	}

	for leg := 1; leg <= MaxLegs; leg++ {
		if price, ok := ParsePrice(n.lookup(fields, FieldEntry, leg)); ok {
			sig.Entries = append(sig.Entries, price)
		}
		if price, ok := ParsePrice(n.lookup(fields, FieldStopLoss, leg)); ok {
			sig.StopLosses = append(sig.StopLosses, price)
		}
		if price, ok := ParsePrice(n.lookup(fields, FieldTakeProfit, leg)); ok {
			sig.TakeProfits = append(sig.TakeProfits, price)
		}
	}

	if sig.Symbol == "" {
		return sig, fmt.Errorf("%w: empty symbol", models.ErrInvalidSignal)
	}
	if len(sig.Entries) == 0 {
		return sig, fmt.Errorf("%w: no entry price", models.ErrInvalidSignal)
	}

	rawTime := n.lookup(fields, FieldIssuedAt, 0)
	issuedAt, ok := ParseTime(rawTime, n.location)
	if !ok {
		return sig, fmt.Errorf("%w: unparseable timestamp %q", models.ErrInvalidSignal, rawTime)
	}
	sig.IssuedAt = issuedAt

	if err := n.validate.Struct(sig); err != nil {
		return sig, fmt.Errorf("%w: %v", models.ErrInvalidSignal, err)
	}
	return sig, nil
}

// lookup returns the first non-empty value across the aliases of a slot
func (n *Normalizer) lookup(fields map[string]string, field Field, leg int) string {
	for _, name := range n.aliases[slot{field: field, leg: leg}] {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(value); !emptyTokens[strings.ToLower(trimmed)] {
			return trimmed
		}
	}
	return ""
}

// ParseDirection resolves a direction token. Ambiguous or unknown tokens are long.
func ParseDirection(token string) models.Direction {
	lowered := strings.ToLower(strings.TrimSpace(token))
	if lowered == "" {
		return models.DirectionLong
	}
	if containsAny(lowered, shortKeywords) && !containsAny(lowered, longKeywords) {
		return models.DirectionShort
	}
	return models.DirectionLong
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
