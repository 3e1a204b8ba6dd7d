package cars_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"car-listing/internal/auth"
	authconfig "car-listing/internal/auth/config"
	authtestutil "car-listing/internal/auth/testutil"
	"car-listing/internal/cars"
	"car-listing/internal/cars/config"
	"car-listing/internal/cars/testutil"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/httputil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// CarsIntegrationTestSuite runs the auth and cars modules together over
// HTTP with in-memory infrastructure.
type CarsIntegrationTestSuite struct {
	suite.Suite
	app    *fiber.App
	repo   *testutil.InMemoryCarRepository
	store  *testutil.MemoryStore
	queue  *testutil.MemoryQueue
	module *cars.CarsModule
}

func TestCarsIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CarsIntegrationTestSuite))
}

func (s *CarsIntegrationTestSuite) SetupTest() {
	bus := eventbus.NewEventBus(nil)

	authModule, err := auth.NewAuthModuleWithRepository(authtestutil.NewInMemoryAuthRepository(), &authconfig.Config{
		JWTSecretKey:     "integration-secret-key-that-is-at-least-32-chars-long",
		JWTIssuer:        "car-listing",
		TokenTTL:         time.Hour,
		CookieName:       "token",
		CookiePath:       "/",
		CookieExpireDays: 7,
		CookieHTTPOnly:   true,
		CookieSameSite:   "Lax",
		BcryptCost:       bcrypt.MinCost,
	}, bus, nil)
	s.Require().NoError(err)

	s.repo = testutil.NewInMemoryCarRepository()
	s.store = testutil.NewMemoryStore()
	s.queue = &testutil.MemoryQueue{}
	s.module, err = cars.NewCarsModuleWithDependencies(cars.Dependencies{
		Repository: s.repo,
		Store:      s.store,
		Queue:      s.queue,
	}, &config.Config{
		MaxImageBytes:      1 << 20,
		UploadConcurrency:  4,
		AccessRule:         "resource.owner == auth.uid",
		CleanupInterval:    time.Minute,
		CleanupBatch:       10,
		CleanupMaxAttempts: 3,
	}, bus, nil)
	s.Require().NoError(err)

	s.app = fiber.New(fiber.Config{ErrorHandler: httputil.ErrorHandler(nil)})
	api := s.app.Group("/api")
	authModule.RegisterRoutes(api)
	s.module.RegisterRoutes(api, authModule.Protect())
}

func (s *CarsIntegrationTestSuite) send(req *http.Request, token string) (int, map[string]interface{}) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *CarsIntegrationTestSuite) register(name, email string) string {
	raw, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": "secret1"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	status, body := s.send(req, "")
	s.Require().Equal(http.StatusCreated, status, body)
	return body["token"].(string)
}

func (s *CarsIntegrationTestSuite) form(method, path string, fields map[string]string, images int) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(w.WriteField(k, v))
	}
	for i := 0; i < images; i++ {
		part, err := w.CreateFormFile("images", fmt.Sprintf("photo-%d.png", i))
		s.Require().NoError(err)
		_, _ = part.Write(testutil.PNG)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *CarsIntegrationTestSuite) createCivic(token string, images int) (int, map[string]interface{}) {
	return s.send(s.form(http.MethodPost, "/api/cars/new", map[string]string{
		"title":       "Civic",
		"description": "Reliable commuter",
		"tags":        `{"car_type":"Sedan","company":"Honda","dealer":"Metro Motors"}`,
	}, images), token)
}

func (s *CarsIntegrationTestSuite) get(path, token string) (int, map[string]interface{}) {
	return s.send(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func carOf(body map[string]interface{}) map[string]interface{} {
	car, _ := body["car"].(map[string]interface{})
	return car
}

func imagesOf(car map[string]interface{}) []interface{} {
	images, _ := car["images"].([]interface{})
	return images
}

func (s *CarsIntegrationTestSuite) TestCreateCivicThenRemoveOnlyImage() {
	token := s.register("Alice", "alice@example.com")

	status, body := s.createCivic(token, 1)
	s.Require().Equal(http.StatusCreated, status, body)
	car := carOf(body)
	s.Require().Len(imagesOf(car), 1)
	imageID := imagesOf(car)[0].(map[string]interface{})["public_id"].(string)

	status, body = s.send(s.form(http.MethodPatch, "/api/cars/"+car["_id"].(string), map[string]string{
		"deletedImages": fmt.Sprintf(`[%q]`, imageID),
	}, 0), token)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("Please provide 1-10 images", body["message"])
	s.True(s.store.Has(imageID))
}

func (s *CarsIntegrationTestSuite) TestImageCountBounds() {
	token := s.register("Alice", "alice@example.com")

	for _, n := range []int{0, 11} {
		status, body := s.createCivic(token, n)
		s.Equal(http.StatusBadRequest, status, "n=%d", n)
		s.Equal("Please provide 1-10 images", body["message"])
	}
	s.Zero(s.store.Len())

	for _, n := range []int{1, 10} {
		status, body := s.createCivic(token, n)
		s.Require().Equal(http.StatusCreated, status, "n=%d", n)
		s.Len(imagesOf(carOf(body)), n)
	}
}

func (s *CarsIntegrationTestSuite) TestOwnersAreIsolated() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	_, body := s.createCivic(alice, 1)
	id := carOf(body)["_id"].(string)

	status, body := s.get("/api/cars/all", bob)
	s.Equal(http.StatusOK, status)
	s.Empty(body["cars"])

	status, _ = s.get("/api/cars/"+id, bob)
	s.Equal(http.StatusForbidden, status)

	status, _ = s.send(s.form(http.MethodPatch, "/api/cars/"+id, map[string]string{"title": "Mine now"}, 0), bob)
	s.Equal(http.StatusForbidden, status)

	status, _ = s.send(httptest.NewRequest(http.MethodDelete, "/api/cars/"+id, nil), bob)
	s.Equal(http.StatusForbidden, status)

	status, _ = s.get("/api/cars/ffffffffffffffffffffffff", bob)
	s.Equal(http.StatusNotFound, status)

	status, body = s.get("/api/cars/"+id, alice)
	s.Equal(http.StatusOK, status)
	s.Equal("Civic", carOf(body)["title"])
}

func (s *CarsIntegrationTestSuite) TestTitleOnlyUpdate() {
	token := s.register("Alice", "alice@example.com")
	_, body := s.createCivic(token, 2)
	before := carOf(body)

	status, body := s.send(s.form(http.MethodPatch, "/api/cars/"+before["_id"].(string), map[string]string{"title": "Civic Si"}, 0), token)
	s.Require().Equal(http.StatusOK, status, body)
	after := carOf(body)

	s.Equal("Civic Si", after["title"])
	s.Equal(before["description"], after["description"])
	s.Equal(before["tags"], after["tags"])
	s.Equal(before["images"], after["images"])
}

func (s *CarsIntegrationTestSuite) TestSearchIsCaseInsensitive() {
	token := s.register("Alice", "alice@example.com")
	s.createCivic(token, 1)

	for _, term := range []string{"sedan", "HONDA", "metro", "civ"} {
		status, body := s.get("/api/cars/all?search="+term, token)
		s.Equal(http.StatusOK, status)
		s.Len(body["cars"], 1, term)
	}

	_, body := s.get("/api/cars/all?search=suv", token)
	s.Empty(body["cars"])
}

func (s *CarsIntegrationTestSuite) TestDeleteSurvivesImageFailure() {
	token := s.register("Alice", "alice@example.com")
	_, body := s.createCivic(token, 1)
	car := carOf(body)
	id := car["_id"].(string)
	imageID := imagesOf(car)[0].(map[string]interface{})["public_id"].(string)
	s.store.FailDelete(imageID, true)

	status, body := s.send(httptest.NewRequest(http.MethodDelete, "/api/cars/"+id, nil), token)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Car deleted successfully", body["message"])

	status, _ = s.get("/api/cars/"+id, token)
	s.Equal(http.StatusNotFound, status)
	_, body = s.get("/api/cars/all", token)
	s.Empty(body["cars"])

	n, _ := s.queue.Len(context.Background())
	s.Equal(int64(1), n)

	s.store.FailDelete(imageID, false)
	stats, err := s.module.GetWorker().RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(1, stats.Released)
	s.False(s.store.Has(imageID))
}

func (s *CarsIntegrationTestSuite) TestUploadFailureLeavesNoRecord() {
	token := s.register("Alice", "alice@example.com")
	s.store.FailUploads(true)

	status, _ := s.createCivic(token, 2)
	s.Equal(http.StatusInternalServerError, status)
	s.Zero(s.repo.Count())
}

func (s *CarsIntegrationTestSuite) TestPagination() {
	token := s.register("Alice", "alice@example.com")
	for i := 0; i < 3; i++ {
		s.createCivic(token, 1)
	}

	status, body := s.get("/api/cars?page=2&limit=2", token)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(float64(3), body["totalDocs"])
	s.Equal(float64(2), body["totalPages"])
	s.Equal(true, body["hasPrevPage"])
	s.Equal(false, body["hasNextPage"])
	s.Len(body["cars"], 1)
}

func TestNewCarsModuleWithDependencies_BadRule(t *testing.T) {
	_, err := cars.NewCarsModuleWithDependencies(cars.Dependencies{
		Repository: testutil.NewInMemoryCarRepository(),
		Store:      testutil.NewMemoryStore(),
		Queue:      &testutil.MemoryQueue{},
	}, &config.Config{AccessRule: "resource.owner =="}, nil, nil)
	require.Error(t, err)
}

func (s *CarsIntegrationTestSuite) TestStopWaitsForWorker() {
	done := s.module.StartWorker(context.Background())
	s.Equal(done, s.module.StartWorker(context.Background()))

	s.Require().NoError(s.module.Stop())
	select {
	case <-done:
	default:
		s.Fail("worker still running after Stop")
	}
	s.Require().NoError(s.module.Stop())
}

func (s *CarsIntegrationTestSuite) TestStopWithoutWorker() {
	s.Require().NoError(s.module.Stop())
}
