package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	customerCodePrefix = "CUST"
	orderNumberPrefix  = "ORD"

	maxIdentifierAttempts = 10
)

var ErrIdentifierExhausted = errors.New("could not generate a unique identifier")

// newIdentifier is swapped in tests to force collisions.
var newIdentifier = func(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(raw[:8])
}

// uniqueIdentifier draws prefixed identifiers until exists reports a free one.
func uniqueIdentifier(ctx context.Context, prefix string, exists func(context.Context, string) (bool, error)) (string, error) {
	return uniqueFrom(ctx, func() string { return newIdentifier(prefix) }, exists)
}

func uniqueFrom(ctx context.Context, generate func() string, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate := generate()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking identifier %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIdentifierExhausted, maxIdentifierAttempts)
}

// generateSKU builds BRA-NAM-NNNN from the brand and item names.
func generateSKU(brandName, itemName string) string {
	brandPart := strings.ToUpper(firstN(strings.TrimSpace(brandName), 3))

	var alnum []rune
	for _, r := range itemName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = append(alnum, r)
		}
	}
	itemPart := strings.ToUpper(firstN(string(alnum), 3))

	return fmt.Sprintf("%s-%s-%d", brandPart, itemPart, 1000+rand.Intn(9000))
}

func firstN(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
