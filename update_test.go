package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/oi-archive/boj-collector/config"
	"github.com/oi-archive/boj-collector/plugin/baekjoon"
	"github.com/oi-archive/boj-collector/plugin/baekjoon/fakeboj"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/libgit2/git2go.v26"
)

func testCollector(t *testing.T, srv *fakeboj.Server, limit int) *collector {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.GroupID = srv.GroupID
	cfg.AutoLogin, cfg.OnlineJudge = "auto", "oj"
	cfg.RequestLimit = limit
	cfg.ThrottleMillis = 0
	cfg.SubmissionsFile = filepath.Join(dir, "submissions.json")
	cfg.ProblemsFile = filepath.Join(dir, "problems.json")
	cfg.CompetitionsFile = filepath.Join(dir, "competitions.json")
	require.NoError(t, os.WriteFile(cfg.CompetitionsFile, []byte(`[{"name": "1회", "problems": [1000, 1001]}]`), 0644))

	l := logrus.New()
	l.SetOutput(io.Discard)
	return newCollector(cfg, l)
}

func rows(n int) []fakeboj.Row {
	out := make([]fakeboj.Row, 0, n)
	for id := n; id >= 1; id-- {
		out = append(out, fakeboj.Row{
			ID: id, Username: "alice", ProblemID: 1000, ProblemName: "A+B", Tier: 1,
			Result: "ac", Message: "맞았습니다!!", Memory: "2020", Time: "0", Language: "C++17", Length: "100",
			When: "2022-03-01 00:00:00",
		})
	}
	return out
}

func fakeServer(t *testing.T) *fakeboj.Server {
	srv := fakeboj.New("13590")
	t.Cleanup(srv.Close)
	srv.PageSize = 3
	srv.Problems[1000] = fakeboj.Problem{Title: "A+B", Tier: 1, Tags: []string{"수학", "구현"}}
	srv.Problems[1001] = fakeboj.Problem{Title: "A-B", Tier: 1, Tags: []string{"수학"}}
	return srv
}

func TestRunOnce(t *testing.T) {
	srv := fakeServer(t)
	srv.Submissions = rows(5)
	c := testCollector(t, srv, 20)

	require.NoError(t, c.runOnce())
	subs, err := c.submissions.ReadSubmissions()
	require.NoError(t, err)
	require.Len(t, subs, 5)
	assert.Equal(t, 5, subs[0].ID)
	assert.Equal(t, 1, subs[4].ID)

	problems, err := c.problems.ReadKnownProblems()
	require.NoError(t, err)
	assert.Equal(t, map[int]baekjoon.Problem{
		1000: {Name: "A+B", Tier: 1, Tags: []string{"수학", "구현"}},
		1001: {Name: "A-B", Tier: 1, Tags: []string{"수학"}},
	}, problems)

	// New submissions arrive; only the newer rows are fetched and no problem
	// page is requested again.
	srv.Submissions = append(rows(7)[:2], srv.Submissions...)
	before := len(srv.Requests())
	require.NoError(t, c.runOnce())
	subs, err = c.submissions.ReadSubmissions()
	require.NoError(t, err)
	require.Len(t, subs, 7)
	assert.Equal(t, 7, subs[0].ID)
	assert.Equal(t, []string{"/group/13590", "/status?group_id=13590"}, srv.Requests()[before:])
}

func TestRunOnceBudgetCarriesOver(t *testing.T) {
	srv := fakeServer(t)
	srv.Submissions = rows(9)
	c := testCollector(t, srv, 3)

	// login + two status pages
	require.NoError(t, c.runOnce())
	subs, err := c.submissions.ReadSubmissions()
	require.NoError(t, err)
	assert.Len(t, subs, 6)
	assert.Equal(t, 9, subs[0].ID)
	problems, err := c.problems.ReadKnownProblems()
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestRunOnceNotLoggedInWritesNothing(t *testing.T) {
	srv := fakeServer(t)
	srv.Submissions = rows(2)
	srv.LoggedIn = false
	c := testCollector(t, srv, 20)

	err := c.runOnce()
	assert.ErrorIs(t, err, baekjoon.ErrNotLoggedIn)
	_, statErr := os.Stat(c.cfg.SubmissionsFile)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(c.cfg.ProblemsFile)
	assert.True(t, os.IsNotExist(statErr))
	assert.Len(t, srv.Requests(), 1)
}

func TestRunOnceSkipsWhileRunning(t *testing.T) {
	srv := fakeServer(t)
	c := testCollector(t, srv, 20)

	c.mu.Lock()
	require.NoError(t, c.runOnce())
	c.mu.Unlock()
	assert.Empty(t, srv.Requests())
}

func TestRunProblemsDoesNotLogin(t *testing.T) {
	srv := fakeServer(t)
	c := testCollector(t, srv, 20)

	require.NoError(t, c.runProblems())
	assert.Equal(t, []string{"/problem/1000", "/problem/1001"}, srv.Requests())
}

func TestRunOnceArchives(t *testing.T) {
	srv := fakeServer(t)
	srv.Submissions = rows(2)
	c := testCollector(t, srv, 20)

	repoDir := filepath.Dir(c.cfg.SubmissionsFile)
	repo, err := git.InitRepository(repoDir, false)
	require.NoError(t, err)
	defer repo.Free()
	c.cfg.ArchiveRepo = repoDir

	require.NoError(t, c.runOnce())
	head, err := repo.Head()
	require.NoError(t, err)
	defer head.Free()
	tip, err := repo.LookupCommit(head.Target())
	require.NoError(t, err)
	defer tip.Free()
	tree, err := tip.Tree()
	require.NoError(t, err)
	defer tree.Free()
	assert.NotNil(t, tree.EntryByName("submissions.json"))
	assert.NotNil(t, tree.EntryByName("problems.json"))
	assert.Nil(t, tree.EntryByName("competitions.json"))

	// nothing new: no further commit
	require.NoError(t, c.runOnce())
	head2, err := repo.Head()
	require.NoError(t, err)
	defer head2.Free()
	assert.True(t, head2.Target().Equal(head.Target()))
}

func TestRunOnceArchivesSubmissionsWhenProblemsFail(t *testing.T) {
	srv := fakeServer(t)
	srv.Submissions = rows(2)
	c := testCollector(t, srv, 20)
	require.NoError(t, os.WriteFile(c.cfg.CompetitionsFile, []byte(`[{"problems": `), 0644))

	repoDir := filepath.Dir(c.cfg.SubmissionsFile)
	repo, err := git.InitRepository(repoDir, false)
	require.NoError(t, err)
	defer repo.Free()
	c.cfg.ArchiveRepo = repoDir

	assert.Error(t, c.runOnce())
	head, err := repo.Head()
	require.NoError(t, err, "submissions should be committed")
	defer head.Free()
	tip, err := repo.LookupCommit(head.Target())
	require.NoError(t, err)
	defer tip.Free()
	tree, err := tip.Tree()
	require.NoError(t, err)
	defer tree.Free()
	assert.NotNil(t, tree.EntryByName("submissions.json"))
	assert.Nil(t, tree.EntryByName("problems.json"))
}
