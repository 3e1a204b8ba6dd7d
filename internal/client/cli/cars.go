package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/client/api"
)

const pageSize = 10

func (a *App) List(ctx context.Context, args []string) error {
	search := strings.Join(args, " ")
	cars, err := a.api.ListCars(ctx, search)
	if err != nil {
		a.report(err)
		return err
	}
	if len(cars) == 0 {
		a.println("No cars found.")
		return nil
	}
	for _, car := range cars {
		a.println(summary(car))
	}
	return nil
}

func (a *App) Page(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: page <n> [search]")
		return errMissingInput
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		a.println("Page must be a positive number.")
		return errMissingInput
	}

	page, err := a.api.PageCars(ctx, n, pageSize, strings.Join(args[1:], " "))
	if err != nil {
		a.report(err)
		return err
	}
	for _, car := range page.Cars {
		a.println(summary(car))
	}
	a.printf("Page %d of %d (%d cars)\n", page.Page, max(page.TotalPages, 1), page.TotalDocs)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, ok := a.carID(args)
	if !ok {
		return errMissingInput
	}
	car, err := a.api.GetCar(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}
	a.println(details(car))
	return nil
}

func (a *App) Create(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	tags, err := a.readTags(model.Tags{})
	if err != nil {
		return err
	}
	paths, err := GetList(a.reader, fmt.Sprintf("Image files, comma separated (%d-%d)", model.MinImages, model.MaxImages), a.out)
	if err != nil {
		return err
	}

	if title == "" || description == "" {
		a.println("Title and description are required.")
		return errMissingInput
	}
	if len(paths) < model.MinImages || len(paths) > model.MaxImages {
		a.printf("Please provide %d-%d images\n", model.MinImages, model.MaxImages)
		return errMissingInput
	}
	images, err := loadImages(paths)
	if err != nil {
		a.println("Error:", err)
		return err
	}

	car, err := a.api.CreateCar(ctx, api.CarForm{
		Title:       title,
		Description: description,
		Tags:        *tags,
		Images:      images,
	})
	if err != nil {
		a.report(err)
		return err
	}
	a.println("Created:")
	a.println(details(car))
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	id, ok := a.carID(args)
	if !ok {
		return errMissingInput
	}
	car, err := a.api.GetCar(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}

	var changes api.CarChanges
	if changes.Title, err = GetOptionalText(a.reader, "Title", car.Title, a.out); err != nil {
		return err
	}
	if changes.Description, err = GetOptionalText(a.reader, "Description", car.Description, a.out); err != nil {
		return err
	}
	tags, err := a.readTags(car.Tags)
	if err != nil {
		return err
	}
	if *tags != car.Tags {
		changes.Tags = tags
	}

	for _, img := range car.Images {
		a.printf("  image %s  %s\n", img.PublicID, img.URL)
	}
	if changes.DeletedImageIDs, err = GetList(a.reader, "Image ids to delete, comma separated (Enter for none)", a.out); err != nil {
		return err
	}
	paths, err := GetList(a.reader, "New image files, comma separated (Enter for none)", a.out)
	if err != nil {
		return err
	}
	if changes.NewImages, err = loadImages(paths); err != nil {
		a.println("Error:", err)
		return err
	}

	if changes.Title == nil && changes.Description == nil && changes.Tags == nil &&
		len(changes.DeletedImageIDs) == 0 && len(changes.NewImages) == 0 {
		a.println("No changes.")
		return nil
	}

	updated, err := a.api.UpdateCar(ctx, id, changes)
	if err != nil {
		a.report(err)
		return err
	}
	a.println("Updated:")
	a.println(details(updated))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, ok := a.carID(args)
	if !ok {
		return errMissingInput
	}
	confirm, err := GetSimpleText(a.reader, fmt.Sprintf("Delete car %s? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") && !strings.EqualFold(confirm, "yes") {
		a.println("Cancelled.")
		return nil
	}

	msg, err := a.api.DeleteCar(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}
	a.println(msg)
	return nil
}

// Watch prints the user's car events until Enter is pressed.
func (a *App) Watch(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Watching your cars, press Enter to stop.")
	done := make(chan error, 1)
	go func() {
		done <- a.api.WatchEvents(watchCtx, func(ev model.CarEvent) {
			a.println(eventLine(ev))
		})
	}()

	lines := make(chan struct{})
	go func() {
		_, _ = a.reader.ReadString('\n')
		close(lines)
	}()

	var err error
	select {
	case <-lines:
		cancel()
		err = <-done
	case err = <-done:
		a.println("Event feed closed, press Enter to continue.")
		<-lines
	}
	if err != nil {
		a.report(err)
		return err
	}
	a.println("Stopped watching.")
	return nil
}

func (a *App) carID(args []string) (string, bool) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		a.println("Please provide a car id.")
		return "", false
	}
	return args[0], true
}

// readTags prompts for each facet, keeping current values on empty input.
func (a *App) readTags(current model.Tags) (*model.Tags, error) {
	tags := current
	fields := []struct {
		label string
		value *string
	}{
		{"Car type", &tags.CarType},
		{"Company", &tags.Company},
		{"Dealer", &tags.Dealer},
	}
	for _, f := range fields {
		v, err := GetOptionalText(a.reader, f.label, *f.value, a.out)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*f.value = *v
		}
	}
	return &tags, nil
}

func loadImages(paths []string) ([]model.ImageUpload, error) {
	images := make([]model.ImageUpload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		img := model.NewImageUpload(filepath.Base(p), data)
		if !img.IsImage() {
			return nil, fmt.Errorf("%s is not an image file", p)
		}
		images = append(images, img)
	}
	return images, nil
}
