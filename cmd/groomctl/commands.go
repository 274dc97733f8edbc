package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/config"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/database"
	"github.com/groomly/groomly-api/internal/pkg/jwt"
	"github.com/groomly/groomly-api/internal/pkg/validator"
	"github.com/groomly/groomly-api/internal/store"
)

// operator acts with admin rights across shops
var operator = actor.Actor{Role: actor.RoleAdmin}

var out io.Writer = os.Stdout

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	if ctx.Config.StorageDriver != config.DriverPostgres {
		return fmt.Errorf("migrations only apply to the postgres driver, STORAGE_DRIVER is %q", ctx.Config.StorageDriver)
	}
	db, err := database.NewPostgres(ctx.Ctx, ctx.Config.DatabaseURL, store.PoolConfig(ctx.Config))
	if err != nil {
		return err
	}
	defer database.ClosePostgres(db)

	applied, err := database.Migrate(ctx.Ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d migration(s)\n", applied)
	return nil
}

type SlotsListCmd struct {
	Shop string `required:"" help:"Shop id."`
	Date string `required:"" help:"Date as YYYY-MM-DD."`
}

func (c *SlotsListCmd) Run(ctx *Context) error {
	shopID, err := uuid.Parse(c.Shop)
	if err != nil {
		return fmt.Errorf("invalid shop id: %w", err)
	}
	date, err := validator.ParseDate(c.Date)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	repos, err := store.Open(ctx.Ctx, ctx.Config, store.OpenOptions{})
	if err != nil {
		return err
	}
	defer repos.Close()

	slots, err := slot.NewService(repos.Slots).ListAvailableSlots(ctx.Ctx, operator, shopID, date)
	if err != nil {
		return err
	}
	return printAvailability(out, slots)
}

func printAvailability(w io.Writer, slots []slot.Availability) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSLOT\tSUB-SLOT ID\tSTATUS\tBOOKING")
	for _, s := range slots {
		status, bookingID := "free", ""
		if s.IsOccupied {
			status = "occupied"
			bookingID = s.BookingID.UUID.String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", s.StartTime, s.SlotNumber, s.SubTimeSlotID, status, bookingID)
	}
	return tw.Flush()
}

type SlotsAddCmd struct {
	Shop  string `required:"" help:"Shop id."`
	Start string `required:"" help:"Start time as HH:MM."`
	Count int    `default:"1" help:"Number of sub-slots to create."`
	Sort  int    `default:"0" help:"Sort order within the day."`
	Day   int    `default:"-1" help:"Weekday 0-6 (0 = Sunday), -1 for every day."`
}

func (c *SlotsAddCmd) Run(ctx *Context) error {
	shopID, err := uuid.Parse(c.Shop)
	if err != nil {
		return fmt.Errorf("invalid shop id: %w", err)
	}
	if c.Count < 1 {
		return errors.New("count must be at least 1")
	}

	repos, err := store.Open(ctx.Ctx, ctx.Config, store.OpenOptions{})
	if err != nil {
		return err
	}
	defer repos.Close()

	req := &slot.CreateTimeSlotRequest{StartTime: c.Start, SortOrder: c.Sort}
	if c.Day >= 0 {
		req.DayOfWeek = &c.Day
	}
	if errs := validator.Validate(req); errs != nil {
		return fmt.Errorf("invalid time slot: %v", errs)
	}

	svc := slot.NewService(repos.Slots)
	ts, err := svc.CreateTimeSlot(ctx.Ctx, operator, shopID, req)
	if err != nil {
		return err
	}
	for n := 1; n <= c.Count; n++ {
		sub, err := svc.CreateSubSlot(ctx.Ctx, operator, ts.ID, &slot.CreateSubSlotRequest{SlotNumber: n})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s #%d %s\n", ts.StartTime, sub.SlotNumber, sub.ID)
	}
	return nil
}

type CatalogImportCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON array of services."`
}

func (c *CatalogImportCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	var entries []catalog.ImportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", c.File, err)
	}

	repos, err := store.Open(ctx.Ctx, ctx.Config, store.OpenOptions{})
	if err != nil {
		return err
	}
	defer repos.Close()

	saved, err := catalog.NewService(repos.Catalog).Import(ctx.Ctx, entries)
	if err != nil {
		return err
	}
	return printServices(out, saved)
}

type CatalogListCmd struct {
	All bool `help:"Include inactive services."`
}

func (c *CatalogListCmd) Run(ctx *Context) error {
	repos, err := store.Open(ctx.Ctx, ctx.Config, store.OpenOptions{})
	if err != nil {
		return err
	}
	defer repos.Close()

	entries, err := catalog.NewService(repos.Catalog).List(ctx.Ctx, !c.All)
	if err != nil {
		return err
	}
	return printServices(out, entries)
}

func printServices(w io.Writer, entries []*catalog.ServiceEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPRICE\tACTIVE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%t\n", e.ID, e.Name, e.Type, e.Price, e.IsActive)
	}
	return tw.Flush()
}

type TokenCmd struct {
	User  string `help:"User id. A random one is used when empty."`
	Shop  string `help:"Shop id. Required for staff."`
	Admin bool   `help:"Issue an admin token."`
}

func (c *TokenCmd) Run(ctx *Context) error {
	userID := uuid.New()
	if c.User != "" {
		id, err := uuid.Parse(c.User)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		userID = id
	}

	role := actor.RoleStaff
	if c.Admin {
		role = actor.RoleAdmin
	}

	var shopID uuid.UUID
	if c.Shop != "" {
		id, err := uuid.Parse(c.Shop)
		if err != nil {
			return fmt.Errorf("invalid shop id: %w", err)
		}
		shopID = id
	} else if role == actor.RoleStaff {
		return errors.New("--shop is required for staff tokens")
	}

	token, err := jwt.NewService(ctx.Config.JWTSecret, ctx.Config.JWTAccessTTL).GenerateAccessToken(userID, shopID, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
