package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/backup"
	"github.com/printdesk/printdesk/jobs"
)

// runtime holds what commands share. Services are opened lazily in Before
// so that --help works without a configured store.
type runtime struct {
	stdout   io.Writer
	open     func(ctx context.Context) (*app.Config, *app.Services, error)
	cfg      *app.Config
	services *app.Services
}

func newApp(rt *runtime) *cli.App {
	return &cli.App{
		Name:      "printdeskctl",
		Usage:     "maintenance commands for PrintDesk",
		Writer:    rt.stdout,
		ErrWriter: os.Stderr,
		After: func(*cli.Context) error {
			if rt.services == nil {
				return nil
			}
			return rt.services.Close()
		},
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "write a backup file",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, stdout when empty"}},
				Before: rt.connect,
				Action: rt.export,
			},
			{
				Name:      "import",
				Usage:     "replace the data with a backup file",
				ArgsUsage: "FILE",
				Before:    rt.connect,
				Action:    rt.importFile,
			},
			{
				Name:   "clear",
				Usage:  "delete all data and seed the defaults",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "confirm deletion"}},
				Before: rt.connect,
				Action: rt.clear,
			},
			{
				Name:   "backups",
				Usage:  "manage stored backups",
				Before: rt.connect,
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list stored backups, newest first", Action: rt.listBackups},
					{Name: "snapshot", Usage: "store a backup now", Action: rt.snapshot},
					{Name: "restore", Usage: "import a stored backup", ArgsUsage: "KEY", Action: rt.restore},
					{Name: "prune", Usage: "delete backups beyond BACKUP_RETENTION", Action: rt.prune},
				},
			},
			{
				Name:  "jobs",
				Usage: "background job queue",
				Subcommands: []*cli.Command{
					{Name: "enqueue", Usage: "enqueue a job by name", ArgsUsage: "NAME", Action: rt.enqueue},
					{Name: "list", Usage: "list job names", Action: rt.listJobs},
				},
			},
		},
	}
}

func (rt *runtime) connect(c *cli.Context) error {
	if rt.services != nil {
		return nil
	}
	cfg, services, err := rt.open(c.Context)
	if err != nil {
		return err
	}
	rt.cfg, rt.services = cfg, services
	return nil
}

func (rt *runtime) export(c *cli.Context) error {
	env, err := rt.services.Backup.Export(c.Context)
	if err != nil {
		return err
	}
	out := rt.stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

func (rt *runtime) importFile(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("import: FILE is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	env, err := backup.Parse(f)
	if err != nil {
		return err
	}
	if err := rt.services.Backup.Import(c.Context, env); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "imported %s (exported %s)\n", path, env.ExportDate.Format("2006-01-02 15:04"))
	return nil
}

func (rt *runtime) clear(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("clear: pass --yes to delete all data")
	}
	if err := rt.services.Backup.Clear(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, "all data deleted, defaults seeded")
	return nil
}

func (rt *runtime) listBackups(c *cli.Context) error {
	infos, err := rt.services.Backup.List(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (rt *runtime) snapshot(c *cli.Context) error {
	info, err := rt.services.Backup.Snapshot(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, info.Key)
	return nil
}

func (rt *runtime) restore(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		return errors.New("restore: KEY is required")
	}
	if err := rt.services.Backup.Restore(c.Context, key); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "restored %s\n", key)
	return nil
}

func (rt *runtime) prune(c *cli.Context) error {
	removed, err := rt.services.Backup.Prune(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "removed %d backups\n", removed)
	return nil
}

func (rt *runtime) enqueue(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("enqueue: NAME is required")
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if !cfg.QueueEnabled() {
		return errors.New("enqueue: REDIS_ADDR is not set")
	}
	redisOpts, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		return err
	}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer client.Close()
	info, err := client.Enqueue(c.Context, name, "cli")
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}

func (rt *runtime) listJobs(*cli.Context) error {
	for _, name := range jobs.TaskNames {
		fmt.Fprintln(rt.stdout, name)
	}
	return nil
}
