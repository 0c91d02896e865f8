package storage

import "errors"

var (
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrReviewInvalid = errors.New("review references missing user or book")
)
