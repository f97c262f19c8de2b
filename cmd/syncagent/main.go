package main

// Field sync agent: keeps technician mutations in a durable local queue and
// replays them when the API is reachable.
//   go run ./cmd/syncagent run
//   go run ./cmd/syncagent status

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"inspection-backend/internal/offline"
	"inspection-backend/internal/shared/config"
	"inspection-backend/internal/shared/telemetry"
)

const healthPath = "/api/v1/health"

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg.Agent, cfg.RedisURL).RunContext(ctx, os.Args); err != nil {
		telemetry.Error("syncagent failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func newApp(defaults config.AgentConfig, redisURL string) *cli.App {
	return &cli.App{
		Name:  "syncagent",
		Usage: "queue field mutations offline and replay them when the API is reachable",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: defaults.ServerURL, Usage: "API base URL"},
			&cli.StringFlag{Name: "store", Value: defaults.Store, Usage: "durable store: sqlite, redis or memory"},
			&cli.StringFlag{Name: "sqlite-path", Value: defaults.SQLitePath, Usage: "SQLite file for the sqlite store"},
			&cli.StringFlag{Name: "redis-url", Value: redisURL, Usage: "Redis URL for the redis store"},
			&cli.IntFlag{Name: "max-attempts", Value: defaults.MaxAttempts, Usage: "dead-letter after this many failed replays (0 retries forever)"},
			&cli.DurationFlag{Name: "base-backoff", Value: defaults.BaseBackoff},
			&cli.DurationFlag{Name: "max-backoff", Value: defaults.MaxBackoff},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "probe the API and flush the queue each time it becomes reachable",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: defaults.ProbeInterval, Usage: "probe interval"},
				},
				Action: withAgent(runMonitor),
			},
			{
				Name:   "flush",
				Usage:  "replay the queue once",
				Action: withAgent(flushOnce),
			},
			{
				Name:   "status",
				Usage:  "print pending and dead-lettered requests",
				Action: withAgent(printStatus),
			},
			{
				Name:  "create-visit",
				Usage: "create a visit, queueing it if the API is unreachable",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "site", Required: true},
					&cli.StringFlag{Name: "address", Required: true},
					&cli.StringFlag{Name: "tech", Required: true},
					&cli.StringSliceFlag{Name: "vertical", Value: cli.NewStringSlice("All Sites")},
					&cli.StringFlag{Name: "notes"},
				},
				Action: withAgent(createVisit),
			},
			{
				Name:  "submit",
				Usage: "submit every drafted decision of a visit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "visit", Required: true},
				},
				Action: withAgent(submitVisit),
			},
			{
				Name:  "save-finding",
				Usage: "record a decision for a catalog item and submit it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "visit", Required: true},
					&cli.StringFlag{Name: "item", Required: true},
					&cli.StringFlag{Name: "decision", Required: true, Usage: "Yes, No or Other"},
					&cli.StringFlag{Name: "reason"},
					&cli.Float64Flag{Name: "qty"},
					&cli.StringFlag{Name: "price"},
					&cli.StringFlag{Name: "notes"},
					&cli.BoolFlag{Name: "quote"},
					&cli.StringSliceFlag{Name: "attachment"},
				},
				Action: withAgent(saveFinding),
			},
		},
	}
}

func withAgent(fn func(*cli.Context, *agent) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := config.AgentConfig{
			ServerURL:   c.String("server"),
			Store:       c.String("store"),
			SQLitePath:  c.String("sqlite-path"),
			MaxAttempts: c.Int("max-attempts"),
			BaseBackoff: c.Duration("base-backoff"),
			MaxBackoff:  c.Duration("max-backoff"),
		}
		a, err := openAgent(c.Context, cfg, c.String("redis-url"))
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c, a)
	}
}

func runMonitor(c *cli.Context, a *agent) error {
	probe := offline.NewProbeSignal(c.String("server")+healthPath, c.Duration("interval"))
	go probe.Run(c.Context)

	monitor := offline.NewMonitor(a.queue, probe)
	monitor.OnFlush = func(res offline.FlushResult, err error) {
		fields := map[string]any{
			"sent":          res.Sent,
			"failed":        res.Failed,
			"deferred":      res.Deferred,
			"dead_lettered": res.DeadLettered,
			"remaining":     res.Remaining,
		}
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Warn("syncagent.flush_failed", fields)
			return
		}
		telemetry.Info("syncagent.flushed", fields)
	}
	if err := monitor.Start(c.Context); err != nil {
		return err
	}
	telemetry.Info("syncagent.started", map[string]any{"server": c.String("server"), "store": c.String("store")})

	<-c.Context.Done()
	monitor.Stop()
	telemetry.Info("syncagent.stopped", map[string]any{"dropped_signals": monitor.Dropped()})
	return nil
}

func flushOnce(c *cli.Context, a *agent) error {
	res, err := a.queue.Flush(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func printStatus(c *cli.Context, a *agent) error {
	pending, err := a.queue.Pending(c.Context)
	if err != nil {
		return err
	}
	dead, err := a.queue.DeadLetters(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]any{"pending": pending, "dead": dead})
}

func createVisit(c *cli.Context, a *agent) error {
	out, err := a.client.CreateVisit(c.Context, offline.VisitInput{
		SiteName:   c.String("site"),
		Address:    c.String("address"),
		Verticals:  c.StringSlice("vertical"),
		TechUserID: c.String("tech"),
		VisitNotes: c.String("notes"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, out)
}

func saveFinding(c *cli.Context, a *agent) error {
	d := offline.DecisionDraft{
		Decision:    c.String("decision"),
		SendToQuote: c.Bool("quote"),
		Notes:       c.String("notes"),
		Attachments: c.StringSlice("attachment"),
	}
	if c.IsSet("reason") {
		reason := c.String("reason")
		d.OtherReason = &reason
	}
	if c.IsSet("qty") {
		qty := c.Float64("qty")
		d.Quantity = &qty
	}
	if c.IsSet("price") {
		price := c.String("price")
		d.UnitPrice = &price
	}

	visitID, item := c.String("visit"), c.String("item")
	if err := a.client.SaveDecision(c.Context, visitID, item, d); err != nil {
		return err
	}
	out, err := a.client.SaveFinding(c.Context, visitID, item, d)
	if err != nil {
		return err
	}
	return printJSON(c, out)
}

func submitVisit(c *cli.Context, a *agent) error {
	outs, err := a.client.SaveAll(c.Context, c.String("visit"))
	if err != nil {
		return err
	}
	return printJSON(c, outs)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
