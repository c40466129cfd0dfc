// Package middleware provides StateStore wrappers that add persistence
// behavior without touching the underlying adapter: at-rest encryption
// and redaction of sensitive strings before they hit disk or Redis.
package middleware

import "github.com/JonnyTran/heydev/pkg/ports"

// Middleware wraps a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares to a store, first middleware outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
