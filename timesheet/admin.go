package timesheet

import (
	"context"
	"fmt"
	"log"
)

// Admin is the lower-trust bulk path: read everything, overwrite everything.
// It never goes through the Reconciler and enforces no invariant; every call
// must present a secret accepted by the Authorizer.
type Admin struct {
	store  RawStore
	auth   Authorizer
	logger *log.Logger
}

// NewAdmin creates the admin capability over store gated by auth.
func NewAdmin(store RawStore, auth Authorizer) *Admin {
	return &Admin{store: store, auth: auth, logger: log.Default()}
}

// WithLogger replaces the logger used for overwrite warnings.
func (a *Admin) WithLogger(l *log.Logger) *Admin {
	a.logger = l
	return a
}

// Unlock checks secret without touching the store.
func (a *Admin) Unlock(secret string) error {
	if a.auth == nil || !a.auth.Authorize(secret) {
		return ErrUnauthorized
	}
	return nil
}

// Entries returns the whole collection for display or export.
func (a *Admin) Entries(ctx context.Context, secret string) (Entries, error) {
	if err := a.Unlock(secret); err != nil {
		return nil, err
	}
	entries, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return entries, nil
}

// Overwrite replaces the whole collection with an edited snapshot.
// Duplicate slots are accepted and logged. Blank categories become Normal.
func (a *Admin) Overwrite(ctx context.Context, secret string, entries Entries) error {
	if err := a.Unlock(secret); err != nil {
		return err
	}
	entries = entries.Clone()
	for i := range entries {
		if entries[i].Category == "" {
			entries[i].Category = CategoryNormal
		}
	}
	if dups := entries.Duplicates(); len(dups) > 0 {
		a.logger.Printf("WARNING: admin overwrite stores %d duplicate slot(s), first: %s %s %s",
			len(dups), dups[0].Date, dups[0].Person, dups[0].Category)
	}
	if err := a.store.Overwrite(ctx, entries); err != nil {
		return fmt.Errorf("failed to overwrite entries: %w", err)
	}
	a.logger.Printf("admin: overwrote store with %d entries", len(entries))
	return nil
}
