package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueIdentifierRetriesOnCollision(t *testing.T) {
	original := newIdentifier
	t.Cleanup(func() { newIdentifier = original })

	n := 0
	newIdentifier = func(prefix string) string {
		n++
		return fmt.Sprintf("%s%08d", prefix, n)
	}
	taken := map[string]bool{"CUST00000001": true, "CUST00000002": true}

	code, err := uniqueIdentifier(context.Background(), customerCodePrefix, func(_ context.Context, c string) (bool, error) {
		return taken[c], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST00000003", code)
}

func TestUniqueIdentifierGivesUp(t *testing.T) {
	original := newIdentifier
	t.Cleanup(func() { newIdentifier = original })
	newIdentifier = func(prefix string) string { return prefix + "SAMECODE" }

	calls := 0
	_, err := uniqueIdentifier(context.Background(), orderNumberPrefix, func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrIdentifierExhausted)
	assert.Equal(t, maxIdentifierAttempts, calls)

	boom := errors.New("db down")
	_, err = uniqueIdentifier(context.Background(), orderNumberPrefix, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCustomerCreateSkipsTakenCode(t *testing.T) {
	original := newIdentifier
	t.Cleanup(func() { newIdentifier = original })
	codes := []string{"CUSTAAAAAAAA", "CUSTAAAAAAAA", "CUSTBBBBBBBB"}
	newIdentifier = func(string) string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	env := newTestEnv()
	ctx := context.Background()
	first, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{FullName: "A One", Phone: "0711000001", PersonalSubtype: strPtr("owner")})
	require.NoError(t, err)
	second, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{FullName: "B Two", Phone: "0711000002", PersonalSubtype: strPtr("owner")})
	require.NoError(t, err)

	assert.Equal(t, "CUSTAAAAAAAA", first.Code)
	assert.Equal(t, "CUSTBBBBBBBB", second.Code)
}
