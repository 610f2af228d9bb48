package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/events"
	"github.com/alexberriman/pretendo-sub001/internal/logging"
	"github.com/alexberriman/pretendo-sub001/internal/persistence"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/routes"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"
)

// Service holds the process-level overrides envdecode reads from the
// environment, mirroring examples/basic/basic.go's Service struct.
type Service struct {
	ConfigPath string `env:"CONFIG,default=pretendo.config.json" description:"path to the resource configuration document"`
	Port       int    `env:"PORT,optional" description:"overrides options.port from the configuration document"`
	Host       string `env:"HOST,optional" description:"overrides options.host from the configuration document"`
	LogLevel   string `env:"LOG_LEVEL,default=info" description:"logrus level"`
}

func main() {
	os.Exit(run())
}

func run() int {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		log.Printf("cannot decode environment: %v", err)
		return 1
	}

	level, err := logrus.ParseLevel(service.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logging.Init(level)

	doc, err := config.LoadFile(service.ConfigPath)
	if err != nil {
		logrus.WithError(err).Error("cannot load configuration")
		return 1
	}

	adapter, err := buildAdapter(doc.Options.Database)
	if err != nil {
		logrus.WithError(err).Error("cannot build persistence adapter")
		return 1
	}

	db, resultErr := database.New(doc, adapter)
	if resultErr != nil {
		logrus.WithError(resultErr).Error("cannot initialize database")
		return 1
	}
	db.SetPublisher(events.New(doc.Options.Events))

	server := routes.New(routes.Builder{
		Document:  doc,
		DB:        db,
		AuthUsers: buildUserSource(doc, db),
	})

	host := service.Host
	if host == "" {
		host = doc.Options.Host
	}
	port := service.Port
	if port == 0 {
		port = doc.Options.Port
	}

	result, err := server.Start(host, port)
	if err != nil {
		logrus.WithError(err).Error("cannot start server")
		return 1
	}
	logrus.Infof("pretendo listening on %s", result.URL)

	waitForShutdownSignal()

	if err := server.Stop(); err != nil {
		logrus.WithError(err).Error("error during shutdown")
		return 1
	}
	return 0
}

func buildAdapter(opts config.DatabaseOptions) (persistence.Adapter, error) {
	saveInterval := time.Duration(opts.SaveIntervalMS) * time.Millisecond

	switch opts.Adapter {
	case "s3":
		return persistence.NewS3(
			persistence.FileOptions{Path: opts.DBPath, AutoSave: opts.AutoSave, SaveInterval: saveInterval},
			persistence.S3Options{Bucket: opts.S3Bucket, Region: opts.S3Region, KeyPrefix: opts.S3KeyPrefix},
		)
	case "file":
		return persistence.NewFile(persistence.FileOptions{Path: opts.DBPath, AutoSave: opts.AutoSave, SaveInterval: saveInterval}), nil
	default:
		return persistence.NewMemory(), nil
	}
}

// buildUserSource resolves spec.md §4.7's "if a dedicated user
// resource is configured, look up by username there; otherwise fall
// back to the inline auth.users list".
func buildUserSource(doc config.Document, db *database.Database) authsvc.UserSource {
	if !doc.Options.Auth.Enabled {
		return nil
	}
	if doc.Options.Auth.UserResource != "" {
		resourceName := doc.Options.Auth.UserResource
		return authsvc.ResourceUserSource{
			Records:       func() []query.Record { return db.Snapshot()[resourceName] },
			UsernameField: firstNonEmpty(doc.Options.Auth.UsernameField, "username"),
			PasswordField: firstNonEmpty(doc.Options.Auth.PasswordField, "password"),
			RoleField:     firstNonEmpty(doc.Options.Auth.RoleField, "role"),
			PrimaryKey:    resourcePrimaryKey(doc, resourceName),
		}
	}
	return authsvc.InlineUserSource{Users: doc.Options.Auth.Users}
}

func resourcePrimaryKey(doc config.Document, name string) string {
	for _, r := range doc.Resources {
		if r.Name == name {
			return r.PrimaryKeyOrDefault()
		}
	}
	return "id"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func waitForShutdownSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println()
	logrus.Info("shutdown signal received")
}
