// Package fakeboj serves minimal Baekjoon pages for tests.
package fakeboj

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

type Row struct {
	ID          int
	Username    string
	ProblemID   int
	ProblemName string
	Tier        int
	// Result is the class suffix, e.g. "ac", "wa", "judging".
	Result   string
	Message  string
	Memory   string
	Time     string
	Language string
	Length   string
	When     string
}

type Problem struct {
	Title string
	Tier  int
	Tags  []string
}

// Server is a fake acmicpc.net. Submissions must be sorted newest first.
type Server struct {
	*httptest.Server
	GroupID     string
	LoggedIn    bool
	PageSize    int
	Submissions []Row
	Problems    map[int]Problem

	mu       sync.Mutex
	requests []string
}

func New(groupID string) *Server {
	s := &Server{
		GroupID:  groupID,
		LoggedIn: true,
		PageSize: 20,
		Problems: make(map[int]Problem),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/group/", s.group)
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/problem/", s.problem)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// Requests returns the request URIs received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) group(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="nav nav-pills"><li class="active"><a href="#">그룹</a></li><li><a href="#">문제집</a></li>`)
	if s.LoggedIn {
		b.WriteString(`<li><a href="/status?group_id=` + s.GroupID + `">채점 현황</a></li>`)
	}
	b.WriteString(`</ul></body></html>`)
	fmt.Fprint(w, b.String())
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("group_id") != s.GroupID {
		http.Error(w, "unknown group", http.StatusNotFound)
		return
	}
	top := -1
	if v := r.URL.Query().Get("top"); v != "" {
		top, _ = strconv.Atoi(v)
	}
	rows := make([]Row, 0, s.PageSize)
	for _, row := range s.Submissions {
		if top >= 0 && row.ID > top {
			continue
		}
		if len(rows) == s.PageSize {
			break
		}
		rows = append(rows, row)
	}
	fmt.Fprint(w, StatusPage(rows))
}

func (s *Server) problem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/problem/"))
	p, ok := s.Problems[id]
	if err != nil || !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><body><div class="error">404</div></body></html>`)
		return
	}
	fmt.Fprint(w, ProblemPage(p))
}

// StatusPage renders a status table with a header row and the given rows.
func StatusPage(rows []Row) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="status-table"><thead><tr><th>제출 번호</th><th>아이디</th><th>문제</th><th>결과</th><th>메모리</th><th>시간</th><th>언어</th><th>코드 길이</th><th>제출한 시간</th></tr></thead><tbody>`)
	for _, row := range rows {
		b.WriteString(RenderRow(row))
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func RenderRow(r Row) string {
	tier := ""
	if r.Tier > 0 {
		tier = fmt.Sprintf(` <img class="solvedac-tier" src="https://d2gd6pc034wcta.cloudfront.net/tier/%d.svg">`, r.Tier)
	}
	return fmt.Sprintf(`<tr id="solution-%d">`+
		`<td>%d</td>`+
		`<td><a href="/user/%s" title="">%s</a></td>`+
		`<td><a href="/problem/%d" rel="tooltip" data-placement="right" title="%s" class="problem_title tooltip-click">%d</a>%s</td>`+
		`<td class="result"><span class="result-text result-%s" data-color="%s">%s</span></td>`+
		`<td class="memory">%s<span class="kb-text"></span></td>`+
		`<td class="time">%s<span class="ms-text"></span></td>`+
		`<td>%s</td>`+
		`<td>%s<span class="byte-text"></span></td>`+
		`<td><a href="/status?top=%d" rel="tooltip" data-placement="top" title="%s" class="real-time-update">1분 전</a></td>`+
		`</tr>`,
		r.ID, r.ID,
		r.Username, r.Username,
		r.ProblemID, html.EscapeString(r.ProblemName), r.ProblemID, tier,
		r.Result, r.Result, html.EscapeString(r.Message),
		r.Memory, r.Time, html.EscapeString(r.Language), r.Length,
		r.ID, r.When)
}

func ProblemPage(p Problem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="page-header"><h1><span id="problem_title">` + html.EscapeString(p.Title) + `</span></h1>`)
	fmt.Fprintf(&b, `<img class="solvedac-tier" src="https://static.solved.ac/tier/%d.svg">`, p.Tier)
	b.WriteString(`</div><section id="problem_tags"><ul class="spoiler-list">`)
	for _, tag := range p.Tags {
		b.WriteString(`<li><a href="/problem/tag/x" class="spoiler-link">` + html.EscapeString(tag) + `</a></li>`)
	}
	b.WriteString(`</ul></section></body></html>`)
	return b.String()
}
