/*
 Request-budgeted HTTP session shared by the crawlers
*/
package public

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// ErrRequestLimitExceeded is returned by Session.Get once RequestLimit requests were issued.
var ErrRequestLimitExceeded = errors.New("request limit exceeded")

const userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36`

type addUATransport struct {
	T http.RoundTripper
}

func (adt *addUATransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return adt.T.RoundTrip(req)
}

func newAddUATransport(T http.RoundTripper) *addUATransport {
	if T == nil {
		T = http.DefaultTransport
	}
	return &addUATransport{T}
}

// Session is an http client that refuses to send more than RequestLimit requests
// and sleeps SleepTime between two consecutive requests.
type Session struct {
	Client       *http.Client
	BaseURL      string
	RequestLimit int
	SleepTime    time.Duration
	Logger       logrus.FieldLogger

	requestCount int
	sleep        func(time.Duration)
}

// NewSession returns a Session whose cookie jar carries cookies for baseURL.
func NewSession(baseURL string, cookies map[string]string, limit int, sleepTime time.Duration) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		list = append(list, &http.Cookie{Name: name, Value: cookies[name], Path: "/"})
	}
	jar.SetCookies(u, list)
	return &Session{
		Client:       &http.Client{Transport: newAddUATransport(nil), Jar: jar},
		BaseURL:      strings.TrimRight(u.String(), "/"),
		RequestLimit: limit,
		SleepTime:    sleepTime,
	}, nil
}

func (s *Session) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// URL joins path to the session's base url.
func (s *Session) URL(path string) string {
	return s.BaseURL + path
}

// Count returns the number of requests issued so far.
func (s *Session) Count() int {
	return s.requestCount
}

// Remaining returns how many requests may still be issued.
func (s *Session) Remaining() int {
	if s.requestCount >= s.RequestLimit {
		return 0
	}
	return s.RequestLimit - s.requestCount
}

// Get sends a single GET request. The response is returned whatever its status code.
func (s *Session) Get(url string) (*http.Response, error) {
	if s.requestCount >= s.RequestLimit {
		s.logger().WithField("limit", s.RequestLimit).Warn("request limit reached")
		return nil, fmt.Errorf("%w: limit=%d", ErrRequestLimitExceeded, s.RequestLimit)
	}
	if s.requestCount != 0 && s.SleepTime > 0 {
		s.logger().Debugf("throttle %v", s.SleepTime)
		sleep := s.sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(s.SleepTime)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Get(url)
	s.requestCount++
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	s.logger().WithFields(logrus.Fields{
		"status": res.StatusCode,
		"remain": s.Remaining(),
	}).Debugf("GET %s", url)
	return res, nil
}

// GetDocument fetches url and parses the body as html.
func (s *Session) GetDocument(url string) (*goquery.Document, error) {
	res, err := s.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
