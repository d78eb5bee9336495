// Package proof stores uploaded payment evidence and gift images in object storage.
package proof

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidKey is returned for keys that escape the archive root.
var ErrInvalidKey = errors.New("invalid object key")

// Object describes a stored blob.
type Object struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// Archive is the object storage contract.
type Archive interface {
	// Put stores the content of r under key and returns the stored key.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// ResolveURL returns a durable URL for a stored key.
	ResolveURL(ctx context.Context, key string) (string, error)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// SanitizeName replaces every character outside [a-zA-Z0-9.-] with an underscore.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// BuildKey returns a collision-resistant key of the form <prefix>/<ULID>_<sanitized name>.
// The ULID sorts by upload time.
func BuildKey(prefix, filename string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	name := id.String() + "_" + SanitizeName(filename)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// cleanKey normalizes a key and rejects keys that leave the archive root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
