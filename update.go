package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oi-archive/boj-collector/archive"
	"github.com/oi-archive/boj-collector/config"
	"github.com/oi-archive/boj-collector/plugin/baekjoon"
	"github.com/oi-archive/boj-collector/store"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type collector struct {
	cfg         *config.Config
	submissions store.SubmissionStore
	problems    store.ProblemStore
	roster      store.RosterSource
	logger      logrus.FieldLogger
	closer      func() error

	// cron calls runOnce from its own goroutines.
	mu sync.Mutex
}

func newCollector(cfg *config.Config, logger logrus.FieldLogger) *collector {
	c := &collector{
		cfg:    cfg,
		roster: store.RosterFile{Path: cfg.CompetitionsFile},
		logger: logger,
		closer: func() error { return nil },
	}
	if cfg.RedisAddr != "" {
		r := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		c.submissions, c.problems, c.closer = r, r, r.Close
	} else {
		c.submissions = store.SubmissionFile{Path: cfg.SubmissionsFile}
		c.problems = store.ProblemFile{Path: cfg.ProblemsFile}
	}
	return c
}

func (c *collector) Close() error {
	return c.closer()
}

// newSession makes the session of one run; the request budget is per run.
func (c *collector) newSession() (*baekjoon.Session, logrus.FieldLogger, error) {
	log := c.logger.WithField("run", uuid.NewString())
	s, err := baekjoon.NewSession(baekjoon.Options{
		BaseURL:      c.cfg.BaseURL,
		GroupID:      c.cfg.GroupID,
		AutoLogin:    c.cfg.AutoLogin,
		OnlineJudge:  c.cfg.OnlineJudge,
		RequestLimit: c.cfg.RequestLimit,
		Throttle:     c.cfg.Throttle(),
		Logger:       log,
	})
	return s, log, err
}

// updateSubmissions reports whether the store was written.
func (c *collector) updateSubmissions(s *baekjoon.Session, log logrus.FieldLogger) (bool, error) {
	stored, err := c.submissions.ReadSubmissions()
	if err != nil {
		return false, fmt.Errorf("read submissions: %w", err)
	}
	latest := baekjoon.LatestSubmissionID(stored)
	res, err := baekjoon.FetchSubmissionsUntil(s, latest)
	if err != nil {
		return false, err
	}
	log = log.WithFields(logrus.Fields{"pages": res.Pages, "requests": s.Count()})
	if res.BudgetExhausted {
		log.Warn("request limit reached, the rest is left for the next run")
	}
	if len(res.Submissions) == 0 {
		log.Infof("submissions are up to date (latest %d)", latest)
		return false, nil
	}
	merged := baekjoon.MergeSubmissions(stored, res.Submissions)
	if err := c.submissions.WriteSubmissions(merged); err != nil {
		return false, fmt.Errorf("write submissions: %w", err)
	}
	log.Infof("added %d submissions, %d..%d", len(res.Submissions), res.Submissions[0].ID, res.Submissions[len(res.Submissions)-1].ID)
	return true, nil
}

// updateProblems reports whether the store was written.
func (c *collector) updateProblems(s *baekjoon.Session, log logrus.FieldLogger) (bool, error) {
	roster, err := c.roster.ReadCompetitions()
	if err != nil {
		return false, fmt.Errorf("read competitions: %w", err)
	}
	known, err := c.problems.ReadKnownProblems()
	if err != nil {
		return false, fmt.Errorf("read problems: %w", err)
	}
	res, err := baekjoon.ResolveMissingProblems(s, roster, known)
	if err != nil {
		return false, err
	}
	if res.BudgetExhausted {
		log.WithField("requests", s.Count()).Warn("request limit reached while resolving problems")
	}
	if len(res.Problems) == 0 {
		log.Info("problems are up to date")
		return false, nil
	}
	if err := c.problems.WriteKnownProblems(baekjoon.MergeProblems(known, res.Problems)); err != nil {
		return false, fmt.Errorf("write problems: %w", err)
	}
	log.Infof("added %d problems", len(res.Problems))
	return true, nil
}

func (c *collector) check() error {
	s, log, err := c.newSession()
	if err != nil {
		return err
	}
	if err := baekjoon.EnsureLogin(s); err != nil {
		return err
	}
	log.Infof("logged in, member of group %s", c.cfg.GroupID)
	return nil
}

func (c *collector) runSubmissions() error {
	s, log, err := c.newSession()
	if err != nil {
		return err
	}
	if err := baekjoon.EnsureLogin(s); err != nil {
		return err
	}
	changed, err := c.updateSubmissions(s, log)
	if err != nil {
		return err
	}
	if changed {
		return c.archive(log, c.cfg.SubmissionsFile)
	}
	return nil
}

func (c *collector) runProblems() error {
	s, log, err := c.newSession()
	if err != nil {
		return err
	}
	changed, err := c.updateProblems(s, log)
	if err != nil {
		return err
	}
	if changed {
		return c.archive(log, c.cfg.ProblemsFile)
	}
	return nil
}

// runOnce is one full pass. A pass that starts while another is still going
// is skipped.
func (c *collector) runOnce() error {
	if !c.mu.TryLock() {
		c.logger.Warn("previous run still in progress, skipping")
		return nil
	}
	defer c.mu.Unlock()

	s, log, err := c.newSession()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := baekjoon.EnsureLogin(s); err != nil {
		return err
	}
	var files []string
	changed, err := c.updateSubmissions(s, log)
	if err != nil {
		return err
	}
	if changed {
		files = append(files, c.cfg.SubmissionsFile)
	}
	changed, err = c.updateProblems(s, log)
	if err != nil {
		// keep what this pass already wrote
		return errors.Join(err, c.archive(log, files...))
	}
	if changed {
		files = append(files, c.cfg.ProblemsFile)
	}
	log.WithFields(logrus.Fields{
		"requests": s.Count(),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("run finished")
	return c.archive(log, files...)
}

// archive commits the JSON store files when an archive repository is set.
func (c *collector) archive(log logrus.FieldLogger, files ...string) error {
	if c.cfg.ArchiveRepo == "" || c.cfg.RedisAddr != "" || len(files) == 0 {
		return nil
	}
	oid, err := archive.Commit(c.cfg.ArchiveRepo, files, fmt.Sprintf("Group %s updated: %s", c.cfg.GroupID, time.Now().Format(time.RFC3339)))
	if err != nil {
		return fmt.Errorf("git: %w", err)
	}
	if oid == nil {
		log.Debug("archive unchanged")
		return nil
	}
	log.WithField("commit", oid.String()).Info("archive committed")
	return nil
}

// schedule runs once, then on every tick of spec until SIGINT or SIGTERM.
func (c *collector) schedule(spec string) error {
	tick := func() {
		if err := c.runOnce(); err != nil {
			c.logger.WithError(err).Error("run failed")
		}
	}
	cr := cron.New()
	if err := cr.AddFunc(spec, tick); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	if err := c.runOnce(); err != nil {
		if errors.Is(err, baekjoon.ErrNotLoggedIn) {
			return err
		}
		c.logger.WithError(err).Error("run failed")
	}
	cr.Start()
	defer cr.Stop()
	c.logger.Infof("scheduled with %q", spec)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	c.logger.Info("stopping")
	return nil
}
