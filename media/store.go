package media

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"postfeed/domain"
)

// allowed is the fixed mime allow-list for uploads.
var allowed = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

var nameRegexp = regexp.MustCompile("[^a-zA-Z0-9._-]+")

// Store writes accepted uploads into a flat directory keyed by generated
// storage keys and serves them back by key. All writes and deletes happen
// outside any store transaction.
type Store struct {
	root   string
	logger domain.Logger
}

func NewStore(root string, logger domain.Logger) (*Store, error) {
	if logger == nil {
		logger = domain.DefaultLogger{}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, domain.Storage("media init", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Accept stores an upload and returns its asset descriptor. A disallowed
// mime type is a silent rejection, (nil, nil), distinct from a fault: the
// caller sees "no file accepted" rather than an error. The storage key is
// a fresh UUID joined with the sanitized original name, so keys never
// collide and never escape the storage root.
func (s *Store) Accept(r io.Reader, declaredMime, originalName string) (*domain.MediaAsset, error) {
	mime := strings.ToLower(strings.TrimSpace(declaredMime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if !allowed[mime] {
		return nil, nil
	}

	key := uuid.NewString() + "-" + sanitizeName(originalName)

	f, err := os.OpenFile(filepath.Join(s.root, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, domain.Storage("media accept", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, domain.Storage("media accept", err)
	}

	return &domain.MediaAsset{
		StorageKey:   key,
		OriginalName: originalName,
		MimeType:     mime,
		SizeBytes:    n,
	}, nil
}

// Release deletes the stored file for a key, best effort. A missing file
// counts as success, so releasing the same key twice is safe. Any other
// failure is logged and swallowed: cleanup must never roll back the
// mutation that orphaned the asset.
func (s *Store) Release(storageKey string) {
	if storageKey == "" {
		return
	}

	err := os.Remove(filepath.Join(s.root, filepath.Base(storageKey)))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Error("media release failed for %s: %v", storageKey, err)
	}
}

// Path returns the on-disk location for a storage key.
func (s *Store) Path(storageKey string) string {
	return filepath.Join(s.root, filepath.Base(storageKey))
}

// Root returns the storage directory, for mounting as a static route.
func (s *Store) Root() string {
	return s.root
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = nameRegexp.ReplaceAllString(name, "")
	name = strings.Trim(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}
