package insights

import "errors"

var (
	ErrNotFound      = errors.New("insight not found")
	ErrSourceOffline = errors.New("analytics source unavailable")
)
