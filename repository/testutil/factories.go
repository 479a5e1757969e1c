package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// SeedAccount inserts an account row directly. Account creation is owned
// by the surrounding system, not the ledger, so tests seed rows the same
// way a provisioning job would.
func SeedAccount(t *testing.T, db *TestDatabase, accountID string, balance int64) {
	t.Helper()

	_, err := db.DB.Exec(context.Background(), `
		INSERT INTO accounts (account_id, balance)
		VALUES ($1, $2)
	`, accountID, balance)
	require.NoError(t, err)
}
