// Package baekjoon collects a group's submissions and problem metadata from
// Baekjoon Online Judge.
package baekjoon

import (
	"errors"
	"fmt"
	"time"

	"github.com/oi-archive/boj-collector/plugin/public"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://www.acmicpc.net"

var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrMalformedRow  = errors.New("malformed submission row")
	ErrMalformedPage = errors.New("malformed page")
)

type Submission struct {
	ID            int    `json:"id"`
	Username      string `json:"username"`
	ProblemID     int    `json:"problemId"`
	ProblemName   string `json:"problemName"`
	Tier          *int   `json:"tier,omitempty"`
	ResultCode    string `json:"resultCode"`
	ResultMessage string `json:"resultMessage"`
	Memory        *int   `json:"memory"`
	Time          *int   `json:"time"`
	Language      string `json:"language"`
	Length        *int   `json:"length"`
	When          string `json:"when"`
}

type Problem struct {
	Name string   `json:"name"`
	Tier int      `json:"tier"`
	Tags []string `json:"tags"`
}

type Competition struct {
	Name     string `json:"name,omitempty"`
	Problems []int  `json:"problems"`
}

type Options struct {
	BaseURL      string
	GroupID      string
	AutoLogin    string
	OnlineJudge  string
	RequestLimit int
	Throttle     time.Duration
	Logger       logrus.FieldLogger
}

// Session is a budgeted BOJ session bound to one group. A new Session is made
// for every run, so the request budget applies per run.
type Session struct {
	*public.Session
	GroupID string
}

func NewSession(o Options) (*Session, error) {
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	s, err := public.NewSession(base, map[string]string{
		"bojautologin": o.AutoLogin,
		"OnlineJudge":  o.OnlineJudge,
	}, o.RequestLimit, o.Throttle)
	if err != nil {
		return nil, err
	}
	s.Logger = o.Logger
	return &Session{Session: s, GroupID: o.GroupID}, nil
}

func (s *Session) log() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *Session) groupURL() string {
	return s.URL("/group/" + s.GroupID)
}

func (s *Session) statusURL(top int) string {
	u := s.URL("/status?group_id=" + s.GroupID)
	if top > 0 {
		u += fmt.Sprintf("&top=%d", top)
	}
	return u
}

func (s *Session) problemURL(id int) string {
	return s.URL(fmt.Sprintf("/problem/%d", id))
}
