// Package cli is the interactive terminal front end of the car-listing API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	authmodel "car-listing/internal/auth/domain/model"
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/client/api"
	"car-listing/internal/client/config"
	"car-listing/internal/client/session"
	"car-listing/internal/shared/logger"
)

// carAPI is the slice of api.Client the commands use.
type carAPI interface {
	Register(ctx context.Context, name, email, password string) (*authmodel.User, error)
	Login(ctx context.Context, email, password string) (*authmodel.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*authmodel.User, error)
	ListCars(ctx context.Context, search string) ([]*model.Car, error)
	PageCars(ctx context.Context, page, limit int, search string) (*model.CarPage, error)
	GetCar(ctx context.Context, id string) (*model.Car, error)
	CreateCar(ctx context.Context, form api.CarForm) (*model.Car, error)
	UpdateCar(ctx context.Context, id string, changes api.CarChanges) (*model.Car, error)
	DeleteCar(ctx context.Context, id string) (string, error)
	WatchEvents(ctx context.Context, fn func(model.CarEvent)) error
}

// App holds the session and the API client for one terminal run.
type App struct {
	api     carAPI
	session *session.Session
	reader  *bufio.Reader
	out     io.Writer
	log     logger.Logger
}

// NewApp wires the session store and API client described by cfg to the
// process's stdin and stdout.
func NewApp(cfg *config.Config, log logger.Logger) *App {
	if log == nil {
		log = logger.Default()
	}

	var store session.TokenStore
	if path := cfg.SessionPath(); path != "" {
		store = session.NewFileStore(path)
	}
	sess := session.New(store)
	client := api.NewClient(cfg.ServerURL, cfg.Timeout, sess, log)

	return newApp(client, sess, os.Stdin, os.Stdout, log)
}

func newApp(client carAPI, sess *session.Session, in io.Reader, out io.Writer, log logger.Logger) *App {
	return &App{
		api:     client,
		session: sess,
		reader:  bufio.NewReader(in),
		out:     out,
		log:     log.WithComponent("cli"),
	}
}

// Run restores a saved session and then serves commands until exit or EOF.
func (a *App) Run(ctx context.Context) {
	a.restore(ctx)
	a.println("Type 'help' for a list of commands.")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) restore(ctx context.Context) {
	if err := a.session.Restore(); err != nil {
		a.log.Warnf("could not load saved session: %v", err)
		return
	}
	if !a.session.IsAuthenticated() {
		return
	}
	user, err := a.api.Me(ctx)
	switch {
	case err == nil:
		a.printf("Welcome back, %s\n", user.Name)
	case api.IsStatus(err, http.StatusUnauthorized):
		a.println("Your session has expired, please login again.")
	default:
		a.report(err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) status() string {
	if user := a.session.User(); user != nil {
		return user.Email
	}
	if a.session.IsAuthenticated() {
		return "signed in"
	}
	return "guest"
}

func (a *App) println(args ...interface{}) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints err the way a user should see it.
func (a *App) report(err error) {
	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		a.println("Error:", se.Message)
	case errors.Is(err, api.ErrNetwork):
		a.println("Error:", api.ErrNetwork.Error())
	default:
		a.log.Debugf("command failed: %v", err)
		a.println("Error: an unexpected error occurred, please try again")
	}
}
