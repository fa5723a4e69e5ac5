package storage

import (
	"strconv"
)

// StrToUint converts a decimal string to a uint. Returns 0 and the parse
// error on failure.
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}
