// Package utils provides general-purpose helpers used across the client:
// type-safe context keys, the resty client constructor and id generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// AccountIDCtxKey is the key used to store the account (Matrix user id) a
// piece of work runs for.
//
// Example of writing a value to the context:
//
//	ctx = utils.WithAccountID(ctx, "@alice:example.org")
var AccountIDCtxKey = contextKey("accountID")

// WithAccountID returns a copy of ctx tagged with accountID.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDCtxKey, accountID)
}

// GetAccountIDFromContext retrieves the account id from the context.
//
// Returns the account id and an ok flag:
//   - ok == true: value is found and is a non-empty string
//   - ok == false: value is missing or has an unexpected type
func GetAccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(AccountIDCtxKey).(string)
	return accountID, ok && accountID != ""
}
