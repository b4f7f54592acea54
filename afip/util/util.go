// Package util holds the small environment helpers used by the demo
// binary.
package util

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
)

// DebugEnabled reports whether AFIP_DEBUG asks for debug logging.
func DebugEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("AFIP_DEBUG"))
	return err == nil && v
}

// GetEnv reads a required environment variable.
func GetEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", errors.Errorf("%s environment variable is not set", key)
	}
	return v, nil
}
