package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/groomly/groomly-api/internal/config"
	"github.com/groomly/groomly-api/internal/pkg/logger"
)

var CLI struct {
	LogLevel string `help:"Log level." default:"warn" env:"LOG_LEVEL"`

	Migrate MigrateCmd `cmd:"" help:"Apply pending PostgreSQL migrations."`
	Slots   struct {
		List SlotsListCmd `cmd:"" help:"Show sub-slot availability of a shop on a date."`
		Add  SlotsAddCmd  `cmd:"" help:"Add a time slot with numbered sub-slots."`
	} `cmd:"" help:"Manage the slot catalog."`
	Catalog struct {
		Import CatalogImportCmd `cmd:"" help:"Import grooming services from a JSON file."`
		List   CatalogListCmd   `cmd:"" help:"List grooming services."`
	} `cmd:"" help:"Manage the service catalog."`
	Token TokenCmd `cmd:"" help:"Issue an access token for a staff member or admin."`
}

// Context is shared by every command
type Context struct {
	Ctx    context.Context
	Config *config.Config
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("groomctl"),
		kong.Description("Operator tooling for the Groomly booking scheduler"),
		kong.UsageOnError(),
	)

	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: CLI.LogLevel, Environment: "production"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err := kctx.Run(&Context{Ctx: context.Background(), Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
