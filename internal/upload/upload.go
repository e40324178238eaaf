package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize is the largest accepted image.
const MaxFileSize = 5 << 20

// Folder is the key prefix for room images inside the bucket.
const Folder = "room-images"

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

var (
	ErrNoFile          = errors.New("upload: no file provided")
	ErrTooLarge        = errors.New("upload: file exceeds 5 MiB")
	ErrUnsupportedType = errors.New("upload: only jpg, jpeg, png, webp and gif images are accepted")
	ErrStorage         = errors.New("upload: object storage unavailable")
)

// ObjectStore is the hosted bucket API.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) error
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths ...string) error
}

type Stored struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type Uploader struct {
	Objects ObjectStore
	Bucket  string
	Now     func() time.Time
}

// Store validates and writes one image. The object key is Folder/<unix-ms>-<rand>.<ext>.
func (u *Uploader) Store(ctx context.Context, filename string, r io.Reader) (*Stored, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if len(data) > MaxFileSize {
		return nil, ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, ErrUnsupportedType
	}

	key := u.key(ext)
	if err := u.Objects.Upload(ctx, u.Bucket, key, contentType, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &Stored{URL: u.Objects.PublicURL(u.Bucket, key), Path: key}, nil
}

// Remove deletes a stored object.
func (u *Uploader) Remove(ctx context.Context, paths ...string) error {
	return u.Objects.Remove(ctx, u.Bucket, paths...)
}

// FromRequest stores the multipart "file" part of r.
func (u *Uploader) FromRequest(w http.ResponseWriter, r *http.Request) (*Stored, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1<<20)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, ErrTooLarge
		}
		return nil, ErrNoFile
	}
	defer file.Close()
	return u.Store(r.Context(), hdr.Filename, file)
}

func (u *Uploader) key(ext string) string {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s%s", Folder, now().UnixMilli(), suffix, ext)
}
