package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"car-listing/internal/cars/domain/model"
	apperrors "car-listing/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// Multipart field names. Browsers and some clients append [] to repeated fields.
var imageFields = []string{"images", "images[]"}

// carForm gives uniform access to multipart and urlencoded car requests.
type carForm struct {
	c    *fiber.Ctx
	form *multipart.Form
}

func parseCarForm(c *fiber.Ctx) (*carForm, error) {
	f := &carForm{c: c}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid form data").WithCause(err)
		}
		f.form = form
	}
	return f, nil
}

// value returns the field and whether the client sent it at all.
func (f *carForm) value(key string) (string, bool) {
	if f.form != nil {
		if v, ok := f.form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
		return "", false
	}
	args := f.c.Request().PostArgs()
	if args.Has(key) {
		return string(args.Peek(key)), true
	}
	return "", false
}

// tags decodes the JSON "tags" field.
func (f *carForm) tags() (*model.Tags, error) {
	raw, ok := f.value("tags")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var tags model.Tags
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, apperrors.NewValidationError("Invalid tags format").WithCause(err)
	}
	return &tags, nil
}

// deletedImages decodes the JSON array in "deletedImages".
func (f *carForm) deletedImages() ([]string, error) {
	raw, ok := f.value("deletedImages")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, apperrors.NewValidationError("Invalid deletedImages format").WithCause(err)
	}
	return ids, nil
}

// images reads every uploaded file. A file larger than maxBytes is read only
// up to maxBytes+1 so the size check downstream still rejects it.
func (f *carForm) images(maxBytes int64) ([]model.ImageUpload, error) {
	if f.form == nil {
		return nil, nil
	}
	var out []model.ImageUpload
	for _, field := range imageFields {
		for _, fh := range f.form.File[field] {
			img, err := readImage(fh, maxBytes)
			if err != nil {
				return nil, err
			}
			out = append(out, img)
		}
	}
	return out, nil
}

func readImage(fh *multipart.FileHeader, maxBytes int64) (model.ImageUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return model.ImageUpload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.ImageUpload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return model.NewImageUpload(fh.Filename, data), nil
}
