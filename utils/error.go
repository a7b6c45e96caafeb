package utils

import "errors"

var (
	ErrorRecordNotFound      = errors.New("record not found")
	ErrorBusinessIdRequired  = errors.New("business id is required")
	ErrorStorageNotAvailable = errors.New("export storage is not configured")
	ErrorRedisNotReady       = errors.New("service not ready (redis not initialized)")
)
