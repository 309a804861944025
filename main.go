package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/acme/autocert"
	_ "modernc.org/sqlite"

	"postfeed/auth"
	"postfeed/bus"
	"postfeed/feed"
	"postfeed/handler"
	"postfeed/media"
)

const DEV_ENV = "dev"
const PRO_ENV = "pro"

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = PRO_ENV
	}

	fmt.Println("Running database schema migrations...")
	db, err := setupDB()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No database schema migration ran. Database schema already in latest version")
		} else {
			fmt.Printf("Error during database schema migration: %v", err)
			os.Exit(1)
		}
	}

	secret, err := fetchSecret(env)
	if err != nil {
		panic(err)
	}
	tokens, err := auth.NewTokenService([]byte(secret))
	if err != nil {
		panic(err)
	}

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(auth.Middleware([]byte(secret), handler.PublicRoute))

	logger := echoLogger{e.Logger}

	imagesDir := os.Getenv("IMAGES_DIR")
	if imagesDir == "" {
		imagesDir = "images"
	}
	assets, err := media.NewStore(imagesDir, logger)
	if err != nil {
		e.Logger.Fatal(err)
	}

	events := bus.New(bus.DefaultBuffer, logger)
	store := feed.NewStore(db, assets, events, logger)

	h := handler.Handler{
		Store:        store,
		Media:        assets,
		Bus:          events,
		Tokens:       tokens,
		EnableSignup: os.Getenv("ENABLE_SIGNUP") == "true",
		Environment:  env,
	}
	h.Register(e)

	e.HTTPErrorHandler = handler.HTTPErrorHandler

	addr := os.Getenv("ADDRESS_LISTEN")
	if env == DEV_ENV && addr == "" {
		addr = ":8080"
	}

	if addr != "" {
		e.Logger.Fatal(e.Start(addr))
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache("/var/www/.cache")
		if onlyHost := os.Getenv("WHITELIST_HOST"); onlyHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(onlyHost)
		}
		e.Pre(middleware.HTTPSRedirect())
		e.Logger.Fatal(e.StartAutoTLS(":443"))
	}
}

func fetchSecret(env string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" && env == DEV_ENV {
		secret = "unsecure"
	}
	if secret == "" {
		return "", errors.New("no secret defined")
	}
	return secret, nil
}

func setupDB() (*sql.DB, error) {
	dbDriver := os.Getenv("DB_DRIVER")
	dataSourceName := os.Getenv("DB_URL")

	if dbDriver == "" {
		dbDriver = "sqlite"
	}

	var db *sql.DB
	var err error
	var driver database.Driver
	if dbDriver == "sqlite" {
		if dataSourceName == "" {
			dataSourceName = "./postfeed.db?_pragma=foreign_keys(1)"
		}
		db, err = sql.Open(dbDriver, dataSourceName)
		if err != nil {
			return nil, err
		}
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, err
		}
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://db/migrations",
		dbDriver, driver)
	if err != nil {
		return nil, err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return db, err
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// echoLogger adapts echo's logger to the domain Logger surface.
type echoLogger struct {
	l echo.Logger
}

func (e echoLogger) Info(format string, args ...any) {
	e.l.Infof(format, args...)
}

func (e echoLogger) Error(format string, args ...any) {
	e.l.Errorf(format, args...)
}
