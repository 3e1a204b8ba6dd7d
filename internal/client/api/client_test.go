package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authmodel "car-listing/internal/auth/domain/model"
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/client/session"
	"car-listing/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sess := session.New(nil)
	return NewClient(srv.URL+"/api", 5*time.Second, sess, quietLogger()), sess
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_AttachesBearerAndCookie(t *testing.T) {
	var gotAuth, gotCookie string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ck, err := r.Cookie(DefaultCookieName); err == nil {
			gotCookie = ck.Value
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "cars": []interface{}{}})
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "tok-1"))

	_, err := c.ListCars(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "tok-1", gotCookie)
}

func TestClient_NoTokenNoHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Cookie"))
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Please login to access this resource"})
	})

	_, err := c.ListCars(context.Background(), "")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.EqualError(t, err, "Please login to access this resource")
}

func TestClient_RotatesTokenFromAnyResponse(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   "rotated",
			"car":     map[string]interface{}{"_id": "c1", "title": "Civic"},
		})
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "old"))

	car, err := c.GetCar(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Civic", car.Title)
	assert.Equal(t, "rotated", sess.Token())
	assert.Equal(t, "u1", sess.User().ID)
}

func TestClient_LoginSetsSession(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ann@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   "tok",
			"user":    map[string]interface{}{"_id": "u1", "name": "Ann", "email": "ann@example.com"},
		})
	})

	user, err := c.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "Ann", sess.User().Name)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid token"})
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "expired"))

	_, err := c.Me(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, sess.IsAuthenticated())
	assert.Nil(t, sess.User())
}

func TestClient_StaleUnauthorizedKeepsNewerSession(t *testing.T) {
	var sess *session.Session
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// another request signed in again while this one was in flight
		assert.NoError(t, sess.Set(&authmodel.User{ID: "u2"}, "fresh"))
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid token"})
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "expired"))

	_, err := c.Me(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "fresh", sess.Token())
	assert.Equal(t, "u2", sess.User().ID)
}

func TestClient_StaleUnauthorizedEventFeedKeepsNewerSession(t *testing.T) {
	var sess *session.Session
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, sess.Set(&authmodel.User{ID: "u2"}, "fresh"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "expired"))

	err := c.WatchEvents(context.Background(), func(model.CarEvent) {})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "fresh", sess.Token())
}

func TestClient_DefaultMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "You are not authorized to perform this action"},
		{http.StatusNotFound, "Not found"},
		{http.StatusRequestEntityTooLarge, "Upload is too large"},
		{http.StatusBadGateway, "Server error, please try again later"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html>oops</html>"))
			})
			_, err := c.GetCar(context.Background(), "c1")
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url+"/api", time.Second, nil, quietLogger())
	_, err := c.ListCars(context.Background(), "")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_LogoutClearsEvenWhenServerFails(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.NoError(t, sess.Set(&authmodel.User{ID: "u1"}, "tok"))

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, sess.IsAuthenticated())
}

func TestClient_CreateCarSendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cars/new", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Civic", r.FormValue("title"))
		assert.Equal(t, "Reliable", r.FormValue("description"))

		var tags model.Tags
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("tags")), &tags))
		assert.Equal(t, "Sedan", tags.CarType)

		files := r.MultipartForm.File[imagesField]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"car":     map[string]interface{}{"_id": "c1", "title": "Civic", "images": []interface{}{map[string]string{"public_id": "p1", "url": "u"}}},
		})
	})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	car, err := c.CreateCar(context.Background(), CarForm{
		Title:       "Civic",
		Description: "Reliable",
		Tags:        model.Tags{CarType: "Sedan"},
		Images: []model.ImageUpload{
			model.NewImageUpload("a.png", png),
			model.NewImageUpload("b.png", png),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", car.ID)
	assert.Len(t, car.Images, 1)
}

func TestClient_UpdateCarSendsOnlyChangedFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/cars/c1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, []string{"New title"}, r.MultipartForm.Value["title"])
		assert.NotContains(t, r.MultipartForm.Value, "description")
		assert.NotContains(t, r.MultipartForm.Value, "tags")
		assert.Equal(t, `["p1","p2"]`, r.FormValue("deletedImages"))

		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "car": map[string]interface{}{"_id": "c1", "title": "New title"}})
	})

	title := "New title"
	car, err := c.UpdateCar(context.Background(), "c1", CarChanges{
		Title:           &title,
		DeletedImageIDs: []string{"p1", "p2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", car.Title)
}

func TestClient_PageCarsQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cars", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "honda", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "cars": []interface{}{}, "totalDocs": 7, "limit": 5, "page": 2,
			"totalPages": 2, "hasPrevPage": true, "hasNextPage": false, "prevPage": 1,
		})
	})

	page, err := c.PageCars(context.Background(), 2, 5, "honda")
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalDocs)
	assert.True(t, page.HasPrevPage)
	require.NotNil(t, page.PrevPage)
	assert.Equal(t, 1, *page.PrevPage)
	assert.Nil(t, page.NextPage)
}

func TestEventsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:5000/api/cars/events",
		NewClient("http://localhost:5000/api", time.Second, nil, quietLogger()).eventsURL())
	assert.Equal(t, "wss://cars.example.com/api/cars/events",
		NewClient("https://cars.example.com/api/", time.Second, nil, quietLogger()).eventsURL())
}
