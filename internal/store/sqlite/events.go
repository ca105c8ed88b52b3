package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/saicojavc/When-Babe/internal/apperror"
	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/store"
)

// Compile-time check that *DB implements store.Store.
var _ store.Store = (*DB)(nil)

// ListAll fetches the full users subtree and flattens every owner's
// events into a single ordered list.
//
// Ordering: owner rows come back in primary-key order and Flatten sorts
// event keys lexicographically, so successive snapshots of the same tree
// are identical element for element. Rows with an empty owner key and
// subtrees that fail to decode are skipped — data hygiene, not errors.
func (db *DB) ListAll(ctx context.Context) ([]model.EventRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT owner_id, event_details FROM users ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var records []model.EventRecord
	for rows.Next() {
		var ownerID, details string
		if err := rows.Scan(&ownerID, &details); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		if ownerID == "" {
			continue
		}

		var tree store.EventTree
		if err := json.Unmarshal([]byte(details), &tree); err != nil {
			db.logger.Warn("skipping undecodable event subtree",
				slog.String("ownerId", ownerID),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, tree.Flatten(ownerID)...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return records, nil
}

// RegisterOwner records a device's first launch. The INSERT is a no-op
// when the owner already exists, so registeredAt is only ever set once.
func (db *DB) RegisterOwner(ctx context.Context, ownerID string, registeredAt time.Time) error {
	if ownerID == "" {
		return apperror.ValidationFailed("ownerId", "owner id is required")
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (owner_id, registered_at) VALUES (?, ?)
		 ON CONFLICT(owner_id) DO NOTHING`,
		ownerID, registeredAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: registering owner %s: %w", ownerID, err)
	}

	db.notifyChanged(ctx)
	return nil
}

// Owner returns a device's registration record.
func (db *DB) Owner(ctx context.Context, ownerID string) (model.Device, error) {
	var millis int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT registered_at FROM users WHERE owner_id = ?`, ownerID,
	).Scan(&millis)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.Device{}, apperror.NotFound("owner", ownerID)
	case err != nil:
		return model.Device{}, fmt.Errorf("sqlite: reading owner %s: %w", ownerID, err)
	}

	return model.Device{
		ID:           ownerID,
		RegisteredAt: time.UnixMilli(millis),
	}, nil
}

// Push creates a new event node under the owner with a fresh
// store-generated key and returns that key.
//
// KEY GENERATION WITH xid:
// xid keys are 20 chars, URL-safe, and sort lexicographically by creation
// time — exactly the contract the board relies on for stable snapshot
// order. The keys are otherwise opaque.
//
// An owner the tree has never seen gets a row created on the way in (the
// original tree materialised paths implicitly on first write). A legacy
// single-event node is migrated to the keyed shape before the new event
// is added, so a legacy owner's first new event preserves their old one.
func (db *DB) Push(ctx context.Context, ownerID string, fields store.EventFields) (string, error) {
	if ownerID == "" {
		return "", apperror.ValidationFailed("ownerId", "owner id is required")
	}

	eventID := xid.New().String()
	err := db.mutateTree(ctx, ownerID, true, func(tree *store.EventTree) error {
		migrateLegacy(tree)
		tree.Multi[eventID] = fields
		return nil
	})
	if err != nil {
		return "", err
	}

	db.notifyChanged(ctx)
	return eventID, nil
}

// Set overwrites exactly the named node's name/date fields. An empty
// eventID addresses a legacy single node. Setting a node that doesn't
// exist is NotFound — Set never creates, that's what Push is for.
func (db *DB) Set(ctx context.Context, ownerID, eventID string, fields store.EventFields) error {
	if ownerID == "" {
		return apperror.ValidationFailed("ownerId", "owner id is required")
	}

	err := db.mutateTree(ctx, ownerID, false, func(tree *store.EventTree) error {
		if eventID == "" {
			if tree.Single == nil {
				return apperror.NotFound("event", ownerID)
			}
			tree.Single = &fields
			return nil
		}
		if _, ok := tree.Multi[eventID]; !ok {
			return apperror.NotFound("event", eventID)
		}
		tree.Multi[eventID] = fields
		return nil
	})
	if err != nil {
		return err
	}

	db.notifyChanged(ctx)
	return nil
}

// Remove deletes the named event node. Other events under the same owner
// (and every other owner) are untouched.
func (db *DB) Remove(ctx context.Context, ownerID, eventID string) error {
	if ownerID == "" {
		return apperror.ValidationFailed("ownerId", "owner id is required")
	}

	err := db.mutateTree(ctx, ownerID, false, func(tree *store.EventTree) error {
		if eventID == "" {
			if tree.Single == nil {
				return apperror.NotFound("event", ownerID)
			}
			tree.Single = nil
			return nil
		}
		if _, ok := tree.Multi[eventID]; !ok {
			return apperror.NotFound("event", eventID)
		}
		delete(tree.Multi, eventID)
		return nil
	})
	if err != nil {
		return err
	}

	db.notifyChanged(ctx)
	return nil
}

// mutateTree runs a read-modify-write cycle on one owner's eventDetails
// subtree inside a transaction. createOwner controls whether a missing
// owner row is materialised (Push) or reported as NotFound (Set/Remove).
func (db *DB) mutateTree(ctx context.Context, ownerID string, createOwner bool, mutate func(*store.EventTree) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var details string
	err = tx.QueryRowContext(ctx,
		`SELECT event_details FROM users WHERE owner_id = ?`, ownerID,
	).Scan(&details)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !createOwner {
			return apperror.NotFound("owner", ownerID)
		}
		details = "{}"
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (owner_id, registered_at) VALUES (?, ?)`,
			ownerID, time.Now().UnixMilli(),
		); err != nil {
			return fmt.Errorf("sqlite: creating owner %s: %w", ownerID, err)
		}
	case err != nil:
		return fmt.Errorf("sqlite: reading owner %s: %w", ownerID, err)
	}

	var tree store.EventTree
	if err := json.Unmarshal([]byte(details), &tree); err != nil {
		return fmt.Errorf("sqlite: decoding events for owner %s: %w", ownerID, err)
	}

	if err := mutate(&tree); err != nil {
		return err
	}

	encoded, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("sqlite: encoding events for owner %s: %w", ownerID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET event_details = ? WHERE owner_id = ?`,
		string(encoded), ownerID,
	); err != nil {
		return fmt.Errorf("sqlite: writing events for owner %s: %w", ownerID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing events for owner %s: %w", ownerID, err)
	}
	return nil
}

// migrateLegacy upgrades a single-event subtree to the keyed shape in
// place, assigning the old record a fresh key. Zero-value trees just get
// an empty map.
func migrateLegacy(tree *store.EventTree) {
	if tree.Multi == nil {
		tree.Multi = make(map[string]store.EventFields)
	}
	if tree.Single != nil {
		tree.Multi[xid.New().String()] = *tree.Single
		tree.Single = nil
	}
}

// notifyChanged re-fetches the flattened tree and broadcasts it. A read
// failure here is logged and swallowed: subscribers keep their last good
// snapshot, and the next successful write delivers a fresh one.
func (db *DB) notifyChanged(ctx context.Context) {
	records, err := db.ListAll(ctx)
	if err != nil {
		db.logger.Error("snapshot re-fetch after write failed",
			slog.String("error", err.Error()),
		)
		return
	}
	db.notifier.Broadcast(records)
}
