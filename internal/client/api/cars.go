package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"car-listing/internal/cars/domain/model"
)

const imagesField = "images[]"

// CarForm is the content of a new listing.
type CarForm struct {
	Title       string
	Description string
	Tags        model.Tags
	Images      []model.ImageUpload
}

// CarChanges describes an edit. Nil fields are left untouched.
type CarChanges struct {
	Title           *string
	Description     *string
	Tags            *model.Tags
	NewImages       []model.ImageUpload
	DeletedImageIDs []string
}

type carResponse struct {
	Car *model.Car `json:"car"`
}

type carsResponse struct {
	Cars []*model.Car `json:"cars"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ListCars returns every car of the signed-in user matching search.
func (c *Client) ListCars(ctx context.Context, search string) ([]*model.Car, error) {
	path := "/cars/all"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	var out carsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Cars, nil
}

// PageCars returns one page of the signed-in user's cars.
func (c *Client) PageCars(ctx context.Context, page, limit int, search string) (*model.CarPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/cars"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out model.CarPage
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCar(ctx context.Context, id string) (*model.Car, error) {
	var out carResponse
	if err := c.do(ctx, http.MethodGet, "/cars/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return out.Car, nil
}

func (c *Client) CreateCar(ctx context.Context, form CarForm) (*model.Car, error) {
	mw := newMultipart()
	mw.field("title", form.Title)
	mw.field("description", form.Description)
	mw.jsonField("tags", form.Tags)
	mw.images(form.Images)
	body, contentType, err := mw.finish()
	if err != nil {
		return nil, err
	}

	var out carResponse
	if err := c.do(ctx, http.MethodPost, "/cars/new", body, contentType, &out); err != nil {
		return nil, err
	}
	return out.Car, nil
}

func (c *Client) UpdateCar(ctx context.Context, id string, changes CarChanges) (*model.Car, error) {
	mw := newMultipart()
	if changes.Title != nil {
		mw.field("title", *changes.Title)
	}
	if changes.Description != nil {
		mw.field("description", *changes.Description)
	}
	if changes.Tags != nil {
		mw.jsonField("tags", changes.Tags)
	}
	if len(changes.DeletedImageIDs) > 0 {
		mw.jsonField("deletedImages", changes.DeletedImageIDs)
	}
	mw.images(changes.NewImages)
	body, contentType, err := mw.finish()
	if err != nil {
		return nil, err
	}

	var out carResponse
	if err := c.do(ctx, http.MethodPatch, "/cars/"+url.PathEscape(id), body, contentType, &out); err != nil {
		return nil, err
	}
	return out.Car, nil
}

// DeleteCar removes a car and returns the server's confirmation message.
func (c *Client) DeleteCar(ctx context.Context, id string) (string, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodDelete, "/cars/"+url.PathEscape(id), nil, "", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// multipartBody collects fields and stops at the first write error.
type multipartBody struct {
	buf *bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipart() *multipartBody {
	buf := &bytes.Buffer{}
	return &multipartBody{buf: buf, w: multipart.NewWriter(buf)}
}

func (m *multipartBody) field(name, value string) {
	if m.err != nil {
		return
	}
	m.err = m.w.WriteField(name, value)
}

func (m *multipartBody) jsonField(name string, v interface{}) {
	if m.err != nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		m.err = fmt.Errorf("encode %s: %w", name, err)
		return
	}
	m.err = m.w.WriteField(name, string(raw))
}

func (m *multipartBody) images(uploads []model.ImageUpload) {
	for _, img := range uploads {
		if m.err != nil {
			return
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imagesField, escapeQuotes(img.Filename)))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := m.w.CreatePart(h)
		if err != nil {
			m.err = err
			return
		}
		_, m.err = part.Write(img.Data)
	}
}

func (m *multipartBody) finish() (*bytes.Buffer, string, error) {
	if m.err == nil {
		m.err = m.w.Close()
	}
	if m.err != nil {
		return nil, "", fmt.Errorf("build form: %w", m.err)
	}
	return m.buf, m.w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
