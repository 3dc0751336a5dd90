// Package cachestore holds the memoized results of cached functions.
//
// Keys are argument fingerprints. A key is written at most once: the first
// writer wins and later inserts for the same key are ignored.
package cachestore

import "errors"

var ErrInvalidConfig = errors.New("invalid cache store config")

type Store interface {
	Load(key string) (value any, ok bool, err error)
	InsertIfAbsent(key string, value any) (inserted bool, err error)
	Close()
}
