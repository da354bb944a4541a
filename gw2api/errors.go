package gw2api

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned after a request kept hitting gateway timeouts
// for every retry attempt.
var ErrTimeout = errors.New("gw2api: timeout calling api")

// RequiredPermissions are the token permissions the advisor needs.
var RequiredPermissions = []string{"account", "characters", "inventories"}

// InvalidTokenError means the API rejected the access token.
type InvalidTokenError struct {
	Key string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("gw2api: invalid access token %s", redactKey(e.Key))
}

// MissingPermissionError means the token is valid but lacks a permission
// the advisor needs.
type MissingPermissionError struct {
	Permission string
	Key        string
}

func (e *MissingPermissionError) Error() string {
	return fmt.Sprintf("gw2api: token %s is missing permission %q", redactKey(e.Key), e.Permission)
}

// redactKey keeps only the first eight characters of an API key so error
// messages stay identifiable without leaking the credential.
func redactKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "…"
}
