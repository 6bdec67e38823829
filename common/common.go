// Package common contains common utilities shared across the module,
// mirroring the teacher's own root-level "common" package: small
// lifecycle interfaces (Runnable, Closable) and panic-on-error helpers
// used by the task/signal/log plumbing.
package common

// Closable is the interface for objects that can release resources.
type Closable interface {
	// Close releases all resources used by the object.
	Close() error
}

// Runnable is the interface for objects that can start to work and stop
// on demand.
type Runnable interface {
	// Start starts the runnable object. Failure to start may result in
	// a panic or an error return.
	Start() error

	Closable
}

// Close closes the obj if it is a Closable.
func Close(obj interface{}) error {
	if c, ok := obj.(Closable); ok {
		return c.Close()
	}
	return nil
}

// CloseIfExists closes the obj if it is a Closable and not nil.
func CloseIfExists(obj interface{}) error {
	if obj == nil {
		return nil
	}
	return Close(obj)
}

// Must panics if err is not nil.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// Must2 panics if err is not nil, otherwise returns v.
func Must2[T any](v T, err error) T {
	Must(err)
	return v
}
