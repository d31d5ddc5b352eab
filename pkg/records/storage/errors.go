package storage

import "errors"

var errStoreClosed = errors.New("store closed")
