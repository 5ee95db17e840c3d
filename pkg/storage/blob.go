package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrObjectExists is returned when a non-overwriting write targets an existing object.
var ErrObjectExists = errors.New("object already exists")

// ErrInvalidPath is returned for object paths that are empty or escape the bucket root.
var ErrInvalidPath = errors.New("invalid object path")

// BlobStore is a bucket of publicly readable objects. Put never overwrites.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, contentType string) error
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

const maxSlugLength = 120

var (
	nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)
	dashRuns     = regexp.MustCompile(`-+`)
	trailingExt  = regexp.MustCompile(`\.[^.]+$`)
)

// Slug lowercases s, strips diacritics, collapses every run of characters outside [a-zA-Z0-9.-]
// into a single dash and truncates the result to 120 characters.
func Slug(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		stripped = s
	}
	out := nonSlugChars.ReplaceAllString(stripped, "-")
	out = dashRuns.ReplaceAllString(out, "-")
	out = strings.ToLower(out)
	if len(out) > maxSlugLength {
		out = out[:maxSlugLength]
	}
	return out
}

// ObjectPath derives the storage path <owner>/<unixMillis>_<slug>.<ext> for an uploaded file.
func ObjectPath(ownerID, filename string, now time.Time) string {
	ext := ""
	if strings.Contains(filename, ".") {
		ext = strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
	}
	base := trailingExt.ReplaceAllString(filename, "")
	name := fmt.Sprintf("%s/%d_%s", ownerID, now.UnixMilli(), Slug(base))
	if ext != "" {
		name += "." + ext
	}
	return name
}

// cleanObjectPath normalises p and rejects absolute or escaping paths.
func cleanObjectPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func joinURL(base, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
