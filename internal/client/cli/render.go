package cli

import (
	"fmt"
	"strings"

	"car-listing/internal/cars/domain/model"
)

const timeLayout = "2006-01-02 15:04"

func tagLine(t model.Tags) string {
	var parts []string
	for _, v := range []string{t.CarType, t.Company, t.Dealer} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}

func summary(car *model.Car) string {
	return fmt.Sprintf("%s  %-30s  %-30s  %d image(s)", car.ID, car.Title, tagLine(car.Tags), len(car.Images))
}

func details(car *model.Car) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", car.Title)
	fmt.Fprintf(&b, "  id:          %s\n", car.ID)
	fmt.Fprintf(&b, "  description: %s\n", car.Description)
	fmt.Fprintf(&b, "  car type:    %s\n", car.Tags.CarType)
	fmt.Fprintf(&b, "  company:     %s\n", car.Tags.Company)
	fmt.Fprintf(&b, "  dealer:      %s\n", car.Tags.Dealer)
	fmt.Fprintf(&b, "  created:     %s\n", car.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(&b, "  updated:     %s\n", car.UpdatedAt.Local().Format(timeLayout))
	fmt.Fprintf(&b, "  images:\n")
	for _, img := range car.Images {
		fmt.Fprintf(&b, "    %s  %s\n", img.PublicID, img.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func eventLine(ev model.CarEvent) string {
	title := ""
	if ev.Car != nil {
		title = ev.Car.Title
	}
	return strings.TrimSpace(fmt.Sprintf("[%s] %s %s %s", ev.Timestamp.Local().Format(timeLayout), ev.Type, ev.CarID, title))
}
