package storage

import "errors"

var (
	ErrStorageInit    = errors.New("storage initialization failed")
	ErrFileOperation  = errors.New("file operation failed")
	ErrRedisOperation = errors.New("redis operation failed")
)
