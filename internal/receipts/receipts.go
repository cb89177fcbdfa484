// Package receipts stores receipt images for expenses and hands out opaque
// references to them.
//
// The ledger engine never interprets a reference beyond asking whether it is
// managed by the store. Legacy ledgers may still carry inline base64-encoded
// images in the reference field; those are not managed and are never deleted
// through the store.
package receipts

import (
	"context"
	"errors"
	"strings"
)

// Scheme prefixes every reference issued by a store.
const Scheme = "receipt://"

var ErrNotManaged = errors.New("the reference was not issued by this store")

// Store persists receipt images. Deletion failures are non-fatal to callers:
// the ledger logs them and carries on with its own mutation.
type Store interface {
	// StoreReceipt persists the image and returns an opaque reference.
	StoreReceipt(ctx context.Context, userKey, recordKey string, image []byte) (string, error)

	// DeleteReceipt removes the image behind a managed reference.
	DeleteReceipt(ctx context.Context, reference string) error
}

// IsManagedReference reports whether a value is a store-issued reference, as
// opposed to a legacy inline-encoded image or an empty field.
func IsManagedReference(value string) bool {
	return strings.HasPrefix(value, Scheme)
}

// objectName returns the object key behind a managed reference.
func objectName(reference string) (string, error) {
	if !IsManagedReference(reference) {
		return "", ErrNotManaged
	}

	return strings.TrimPrefix(reference, Scheme), nil
}
