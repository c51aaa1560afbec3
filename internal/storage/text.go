package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrTooLarge   = errors.New("document exceeds size limit")
	ErrNotUTF8    = errors.New("document is not valid UTF-8 text")
	ErrNoDocument = errors.New("document not found")
)

const documentExt = ".txt"

// documentDir is the key prefix of everything owner uploads. Owner ids are
// caller-supplied, so they are folded into a name-based uuid rather than
// used as path segments.
func documentDir(owner string) string {
	return "documents/" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner)).String() + "/"
}

// NewDocumentKey names a fresh upload belonging to owner.
func NewDocumentKey(owner string) string {
	return documentDir(owner) + uuid.NewString() + documentExt
}

// OwnsDocument reports whether key names a document NewDocumentKey could
// have issued to owner.
func OwnsDocument(owner, key string) bool {
	name, ok := strings.CutPrefix(key, documentDir(owner))
	if !ok || !strings.HasSuffix(name, documentExt) {
		return false
	}
	id := strings.TrimSuffix(name, documentExt)
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ExtractText loads a stored document as plain UTF-8 text. Documents are
// taken as already-extracted text; limit <= 0 means no limit.
func ExtractText(ctx context.Context, bs BlobStore, key string, limit int64) (string, error) {
	rc, err := bs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", key, ErrNoDocument)
		}
		return "", err
	}
	defer rc.Close()
	return ReadText(rc, limit)
}

// ReadText reads r as UTF-8 text, dropping a byte-order mark and
// normalizing line endings.
func ReadText(r io.Reader, limit int64) (string, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if limit > 0 && int64(len(b)) > limit {
		return "", ErrTooLarge
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(b) {
		return "", ErrNotUTF8
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}
