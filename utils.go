package main

import (
	"fmt"
	"os"

	"github.com/oi-archive/boj-collector/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// fatal prints the error's details
// then exits the program with an exit status of 1.
func fatal(err error) {
	logrus.Error(err)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// loadConfig layers the global flags over the config file and environment.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"), ctx.GlobalStringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	if v := ctx.GlobalString("group"); v != "" {
		cfg.GroupID = v
	}
	if v := ctx.GlobalInt("limit"); v >= 0 {
		cfg.RequestLimit = v
	}
	if v := ctx.GlobalInt("throttle"); v >= 0 {
		cfg.ThrottleMillis = v
	}
	for flag, dst := range map[string]*string{
		"base-url":     &cfg.BaseURL,
		"submissions":  &cfg.SubmissionsFile,
		"problems":     &cfg.ProblemsFile,
		"competitions": &cfg.CompetitionsFile,
		"redis":        &cfg.RedisAddr,
		"archive":      &cfg.ArchiveRepo,
	} {
		if v := ctx.GlobalString(flag); v != "" {
			*dst = v
		}
	}
	return cfg, cfg.Validate()
}

func setup(ctx *cli.Context) (*collector, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return newCollector(cfg, logrus.StandardLogger()), nil
}
