// Package expiry runs the active expiration pass over the key-value store.
//
// Every interval the sweeper takes the store's write lock once and removes
// all keys whose expiry lies strictly before the current time. It runs on a
// goroutine locked to its own OS thread for the lifetime of the server.
package expiry
