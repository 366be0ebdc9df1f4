package domain

import "errors"

var (
	ErrStoreQuota          = errors.New("store quota exceeded")
	ErrTableNotFound       = errors.New("table not found")
	ErrRowOutOfRange       = errors.New("row index out of range")
	ErrEmptyCell           = errors.New("empty cell")
	ErrMalformedOption     = errors.New("malformed option cell")
	ErrMalformedRow        = errors.New("malformed row")
	ErrInvalidIndex        = errors.New("invalid question index")
	ErrDuplicateOption     = errors.New("option already exists")
	ErrEmptyText           = errors.New("text is required")
	ErrAlreadyResponded    = errors.New("user has already responded")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrUserNotFound        = errors.New("user not found")
	ErrAdminExists         = errors.New("admin already exists")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrInvalidButtonURL    = errors.New("button url must be an absolute http(s) url")
)
