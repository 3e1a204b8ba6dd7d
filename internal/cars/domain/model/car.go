package model

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Limits on a car record.
const (
	MaxTitleLength = 100
	MinImages      = 1
	MaxImages      = 10
)

// Image is a stored attachment. PublicID is the object key used to release it.
type Image struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url" bson:"url"`
}

// Tags are the searchable facets of a car.
type Tags struct {
	CarType string `json:"car_type" bson:"car_type"`
	Company string `json:"company" bson:"company"`
	Dealer  string `json:"dealer" bson:"dealer"`
}

// Normalize trims every facet.
func (t Tags) Normalize() Tags {
	return Tags{
		CarType: strings.TrimSpace(t.CarType),
		Company: strings.TrimSpace(t.Company),
		Dealer:  strings.TrimSpace(t.Dealer),
	}
}

// Car is a listing owned by exactly one user.
type Car struct {
	ID          string             `json:"_id" bson:"-"`
	ObjectID    primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Images      []Image            `json:"images" bson:"images"`
	Tags        Tags               `json:"tags" bson:"tags"`
	Owner       string             `json:"user" bson:"user"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// SyncID fills ID from ObjectID after a decode.
func (c *Car) SyncID() {
	if c.ID == "" && !c.ObjectID.IsZero() {
		c.ID = c.ObjectID.Hex()
	}
}

// Clone returns a deep copy.
func (c *Car) Clone() *Car {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Images = append([]Image(nil), c.Images...)
	return &cp
}

// ImageIDs lists the public ids of every attachment, in order.
func (c *Car) ImageIDs() []string {
	ids := make([]string, 0, len(c.Images))
	for _, img := range c.Images {
		ids = append(ids, img.PublicID)
	}
	return ids
}

// TitleLength counts characters, not bytes.
func TitleLength(title string) int {
	return utf8.RuneCountInString(title)
}

// ImageUpload is one incoming image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewImageUpload sniffs the content type from data.
func NewImageUpload(filename string, data []byte) ImageUpload {
	return ImageUpload{
		Filename:    filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
}

// Size is the payload length in bytes.
func (u ImageUpload) Size() int64 {
	return int64(len(u.Data))
}

// Reader returns a fresh reader over the payload.
func (u ImageUpload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// IsImage reports whether the sniffed content type is an image.
func (u ImageUpload) IsImage() bool {
	return strings.HasPrefix(u.ContentType, "image/")
}

// CreateInput carries everything needed to create a car.
type CreateInput struct {
	Title       string
	Description string
	Tags        Tags
	Images      []ImageUpload
}

// CarPatch holds the fields an update supplied. Nil means unchanged.
type CarPatch struct {
	Title       *string
	Description *string
	Tags        *Tags
}

// Empty reports whether no field was supplied.
func (p CarPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil
}

// UpdateInput is a partial update plus image additions and removals.
type UpdateInput struct {
	Patch           CarPatch
	NewImages       []ImageUpload
	DeletedImageIDs []string
}

// Empty reports whether the update would change nothing.
func (u UpdateInput) Empty() bool {
	return u.Patch.Empty() && len(u.NewImages) == 0 && len(u.DeletedImageIDs) == 0
}

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery selects an owner's cars, optionally filtered by a search term.
type ListQuery struct {
	Owner  string
	Search string
	Page   int
	Limit  int
}

// Normalize applies pagination defaults and caps.
func (q ListQuery) Normalize() ListQuery {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Skip is the number of documents before the requested page.
func (q ListQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// CarPage is one page of results with navigation metadata.
type CarPage struct {
	Cars          []*Car `json:"cars"`
	TotalDocs     int64  `json:"totalDocs"`
	Limit         int    `json:"limit"`
	Page          int    `json:"page"`
	TotalPages    int    `json:"totalPages"`
	PagingCounter int64  `json:"pagingCounter"`
	HasPrevPage   bool   `json:"hasPrevPage"`
	HasNextPage   bool   `json:"hasNextPage"`
	PrevPage      *int   `json:"prevPage"`
	NextPage      *int   `json:"nextPage"`
}

// NewCarPage computes navigation metadata for q over total documents.
func NewCarPage(cars []*Car, total int64, q ListQuery) *CarPage {
	if cars == nil {
		cars = []*Car{}
	}
	totalPages := 1
	if total > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}

	p := &CarPage{
		Cars:          cars,
		TotalDocs:     total,
		Limit:         q.Limit,
		Page:          q.Page,
		TotalPages:    totalPages,
		PagingCounter: q.Skip() + 1,
		HasPrevPage:   q.Page > 1,
		HasNextPage:   q.Page < totalPages,
	}
	if p.HasPrevPage {
		prev := q.Page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := q.Page + 1
		p.NextPage = &next
	}
	return p
}
