// Package objectstore provides bucket/key blob stores with content ETags.
package objectstore

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("objectstore: key not found")

// ETag is the hex MD5 of an object body, matching what S3 reports for
// single-part uploads.
func ETag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func objectPath(bucket, key string) string {
	return bucket + "/" + strings.TrimPrefix(key, "/")
}
