package main

import (
	"context"
	"errors"
	"fmt"

	"turfbook/internal/store"
)

// bootstrapDemoAccounts seeds one booker and one owner account so a fresh
// install can be exercised immediately. Re-running against a populated
// database is a no-op.
func bootstrapDemoAccounts(ctx context.Context, dataStore *store.Store) error {
	accounts := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Demo User", "demo@turfbook.local", "demo123", "user"},
		{"Demo Owner", "owner@turfbook.local", "owner123", "owner"},
	}

	for _, a := range accounts {
		_, err := dataStore.CreateUser(ctx, a.name, a.email, a.password, a.role)
		if err != nil && !errors.Is(err, store.ErrEmailExists) {
			return fmt.Errorf("bootstrap %s: %w", a.email, err)
		}
	}
	return nil
}
