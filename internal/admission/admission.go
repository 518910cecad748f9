// Package admission decides whether an upload may enter the transient store and
// assigns the collision-resistant name it is stored under.
package admission

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrPayloadTooLarge     = errors.New("file exceeds the upload size limit")
)

// DefaultMaxSizeBytes is the upload ceiling when none is configured.
const DefaultMaxSizeBytes int64 = 10 * 1024 * 1024

const maxNameLen = 100

var documentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

var spreadsheetTypes = map[string]struct{}{
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

// Policy holds the admission rules for one deployment.
type Policy struct {
	MaxSizeBytes      int64
	AllowSpreadsheets bool
}

func (p Policy) maxSize() int64 {
	if p.MaxSizeBytes <= 0 {
		return DefaultMaxSizeBytes
	}
	return p.MaxSizeBytes
}

// Admit checks the declared size and MIME type of a candidate upload.
func (p Policy) Admit(mimeType string, size int64) error {
	if size > p.maxSize() {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, size, p.maxSize())
	}
	if !p.Allowed(mimeType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, mimeType)
	}
	return nil
}

// Allowed reports whether mimeType is on the allow-list or is an image type.
func (p Policy) Allowed(mimeType string) bool {
	mt := normalizeType(mimeType)
	if mt == "" {
		return false
	}
	if strings.HasPrefix(mt, "image/") {
		return true
	}
	if _, ok := documentTypes[mt]; ok {
		return true
	}
	if p.AllowSpreadsheets {
		_, ok := spreadsheetTypes[mt]
		return ok
	}
	return false
}

func normalizeType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	return strings.ToLower(mt)
}

// LimitReader returns a reader that fails with ErrPayloadTooLarge once more than
// the policy's ceiling has been read from r.
func (p Policy) LimitReader(r io.Reader) io.Reader {
	return &limitedReader{r: r, remaining: p.maxSize()}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(b []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrPayloadTooLarge
	}
	// Read one byte past the limit so an exact-size upload still succeeds.
	if int64(len(b)) > l.remaining+1 {
		b = b[:l.remaining+1]
	}
	n, err := l.r.Read(b)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrPayloadTooLarge
	}
	return n, err
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
var dotRuns = regexp.MustCompile(`\.{2,}`)

// SanitizeName reduces a client-supplied filename to a safe base name.
func SanitizeName(original string) string {
	name := path.Base(strings.ReplaceAll(original, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.TrimLeft(name, ".")
	if len(name) > maxNameLen {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxNameLen-len(ext)] + ext
	}
	if name == "" || name == "_" {
		return "upload"
	}
	return name
}

// StoredName builds "<unix-ms>-<random>-<sanitized original>" so that uploads sharing
// an original name never collide.
func StoredName(original string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), suffix, SanitizeName(original))
}
