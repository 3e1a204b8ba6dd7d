package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder every car image is stored under.
const Folder = "cars"

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ObjectKey builds "cars/<yyyy>/<mm>/<uuid><ext>". The extension comes from
// the filename, or from the content type when the filename has none.
func ObjectKey(now time.Time, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		ext = extByContentType[contentType]
	}
	return fmt.Sprintf("%s/%04d/%02d/%s%s", Folder, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// ObjectURL joins the public base URL, bucket and key.
func ObjectURL(baseURL, bucket, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + bucket + "/" + key
}
