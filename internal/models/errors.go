package models

import "errors"

// ErrNotFound is returned by store and directory lookups for missing rows.
var ErrNotFound = errors.New("not found")
