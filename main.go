package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const usage = `incremental mirror of a Baekjoon Online Judge group

boj-collector copies the submissions of a BOJ group and the problems of its
competitions into local JSON files (or redis), a bounded number of requests
at a time.`

func main() {
	app := cli.NewApp()
	app.Name = "boj-collector"
	app.Usage = usage
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug output for logging",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "set the log file path (default stderr)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "set the format used by logs ('text' (default), or 'json')",
		},
		cli.StringFlag{
			Name:  "config,c",
			Usage: "TOML config file",
		},
		cli.StringSliceFlag{
			Name:  "env-file",
			Usage: "dotenv file with GROUP_ID, BOJ_AUTO_LOGIN and ONLINE_JUDGE (default .env)",
		},
		cli.StringFlag{
			Name:  "group,g",
			Usage: "BOJ group id, overrides GROUP_ID",
		},
		cli.IntFlag{
			Name:  "limit",
			Value: -1,
			Usage: "max requests per run",
		},
		cli.IntFlag{
			Name:  "throttle",
			Value: -1,
			Usage: "milliseconds to wait between requests",
		},
		cli.StringFlag{
			Name:  "base-url",
			Usage: "BOJ address",
		},
		cli.StringFlag{
			Name:  "submissions",
			Usage: "submissions file",
		},
		cli.StringFlag{
			Name:  "problems",
			Usage: "problems file",
		},
		cli.StringFlag{
			Name:  "competitions",
			Usage: "competitions file",
		},
		cli.StringFlag{
			Name:  "redis",
			Usage: "redis address; stores are kept in redis instead of files",
		},
		cli.StringFlag{
			Name:  "archive",
			Usage: "git repository to commit the files into after each run",
		},
	}
	app.Commands = []cli.Command{
		runCmd,
		checkCmd,
		submissionsCmd,
		problemsCmd,
	}
	app.Action = runCmd.Action

	app.Before = func(context *cli.Context) error {
		if context.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if path := context.GlobalString("log"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				return err
			}
			logrus.SetOutput(f)
		}
		switch context.GlobalString("log-format") {
		case "text":
			// retain logrus's default.
		case "json":
			logrus.SetFormatter(new(logrus.JSONFormatter))
		default:
			return fmt.Errorf("unknown log-format %q", context.GlobalString("log-format"))
		}
		return nil
	}

	cli.ErrWriter = &FatalWriter{cli.ErrWriter}
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

var runCmd = cli.Command{
	Name:  "run",
	Usage: "update submissions and problems",
	Description: `The run command logs in, fetches new submissions, resolves the problems of
the competitions file, then commits the files when --archive is set.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "schedule",
			Usage: "cron spec, e.g. @midnight; keep running and update on every tick",
		},
	},
	Action: func(ctx *cli.Context) error {
		c, err := setup(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		spec := c.cfg.Schedule
		if v := ctx.String("schedule"); v != "" {
			spec = v
		}
		if spec != "" {
			return c.schedule(spec)
		}
		return c.runOnce()
	},
}

var checkCmd = cli.Command{
	Name:  "check",
	Usage: "check the cookies and the group membership",
	Action: func(ctx *cli.Context) error {
		c, err := setup(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.check()
	},
}

var submissionsCmd = cli.Command{
	Name:  "submissions",
	Usage: "update submissions only",
	Action: func(ctx *cli.Context) error {
		c, err := setup(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.runSubmissions()
	},
}

var problemsCmd = cli.Command{
	Name:  "problems",
	Usage: "resolve missing problems only",
	Action: func(ctx *cli.Context) error {
		c, err := setup(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.runProblems()
	},
}

type FatalWriter struct {
	cliErrWriter io.Writer
}

func (f *FatalWriter) Write(p []byte) (n int, err error) {
	logrus.Error(string(p))
	return f.cliErrWriter.Write(p)
}
