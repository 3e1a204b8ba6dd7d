package http

import (
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/usecase"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/httputil"
	"car-listing/internal/shared/logger"
	"car-listing/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// CarHTTPHandler serves the /cars routes.
type CarHTTPHandler struct {
	usecase       usecase.CarUsecaseInterface
	events        eventbus.EventBusInterface
	maxImageBytes int64
	log           logger.Logger
}

// NewCarHTTPHandler creates the handler. events feeds the websocket stream.
func NewCarHTTPHandler(uc usecase.CarUsecaseInterface, events eventbus.EventBusInterface, maxImageBytes int64, log logger.Logger) *CarHTTPHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CarHTTPHandler{
		usecase:       uc,
		events:        events,
		maxImageBytes: maxImageBytes,
		log:           log.WithComponent("cars-http"),
	}
}

// SetupCarRoutes mounts every car route on router behind protect.
func (h *CarHTTPHandler) SetupCarRoutes(router fiber.Router, protect fiber.Handler) {
	router.Use(protect)

	router.Post("/new", h.CreateCar)
	router.Get("/all", h.ListCars)
	router.Get("/", h.PageCars)
	router.Use("/events", h.upgradeEvents)
	router.Get("/events", h.eventStream())
	router.Get("/:id", h.GetCar)
	router.Patch("/:id", h.UpdateCar)
	router.Delete("/:id", h.DeleteCar)
}

func currentUser(c *fiber.Ctx) (string, error) {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil || userID == "" {
		return "", apperrors.NewAuthenticationError("Please login to access this resource")
	}
	return userID, nil
}

// CreateCar handles POST /cars/new
func (h *CarHTTPHandler) CreateCar(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	form, err := parseCarForm(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	tags, err := form.tags()
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	images, err := form.images(h.maxImageBytes)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	in := model.CreateInput{Images: images}
	in.Title, _ = form.value("title")
	in.Description, _ = form.value("description")
	if tags != nil {
		in.Tags = *tags
	}

	car, err := h.usecase.Create(c.UserContext(), owner, in)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return httputil.Success(c, fiber.StatusCreated, fiber.Map{"car": car})
}

// ListCars handles GET /cars/all?search=
func (h *CarHTTPHandler) ListCars(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	cars, err := h.usecase.List(c.UserContext(), owner, c.Query("search"))
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"cars": cars})
}

// PageCars handles GET /cars?page=&limit=&search=
func (h *CarHTTPHandler) PageCars(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	page, err := h.usecase.Page(c.UserContext(), model.ListQuery{
		Owner:  owner,
		Search: c.Query("search"),
		Page:   c.QueryInt("page", model.DefaultPage),
		Limit:  c.QueryInt("limit", model.DefaultLimit),
	})
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{
		"cars":          page.Cars,
		"totalDocs":     page.TotalDocs,
		"limit":         page.Limit,
		"page":          page.Page,
		"totalPages":    page.TotalPages,
		"pagingCounter": page.PagingCounter,
		"hasPrevPage":   page.HasPrevPage,
		"hasNextPage":   page.HasNextPage,
		"prevPage":      page.PrevPage,
		"nextPage":      page.NextPage,
	})
}

// GetCar handles GET /cars/:id
func (h *CarHTTPHandler) GetCar(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	car, err := h.usecase.Get(c.UserContext(), c.Params("id"), owner)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"car": car})
}

// UpdateCar handles PATCH /cars/:id. Only fields present in the form change.
func (h *CarHTTPHandler) UpdateCar(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	form, err := parseCarForm(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	var in model.UpdateInput
	if title, ok := form.value("title"); ok {
		in.Patch.Title = &title
	}
	if description, ok := form.value("description"); ok {
		in.Patch.Description = &description
	}
	if in.Patch.Tags, err = form.tags(); err != nil {
		return httputil.Fail(c, h.log, err)
	}
	if in.DeletedImageIDs, err = form.deletedImages(); err != nil {
		return httputil.Fail(c, h.log, err)
	}
	if in.NewImages, err = form.images(h.maxImageBytes); err != nil {
		return httputil.Fail(c, h.log, err)
	}

	car, err := h.usecase.Update(c.UserContext(), c.Params("id"), owner, in)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	if in.Empty() {
		return httputil.Success(c, fiber.StatusOK, fiber.Map{"message": "No updates provided", "car": car})
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"car": car})
}

// DeleteCar handles DELETE /cars/:id
func (h *CarHTTPHandler) DeleteCar(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}

	if err := h.usecase.Delete(c.UserContext(), c.Params("id"), owner); err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"message": "Car deleted successfully"})
}
