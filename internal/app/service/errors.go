package service

import "errors"

var (
	// ErrInvalidURL marks a target that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid target url")
	// ErrInvalidKey marks a custom key with forbidden characters or a reserved name.
	ErrInvalidKey = errors.New("invalid custom key")
	// ErrTargetUnreachable marks a target that failed the reachability probe.
	ErrTargetUnreachable = errors.New("target not accessible")
	// ErrKeyConflict marks a key that is already taken.
	ErrKeyConflict = errors.New("key already in use")
	// ErrNotFound marks an unknown (or, for redirects, inactive) link.
	ErrNotFound = errors.New("link not found")
)
