package baekjoon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oi-archive/boj-collector/plugin/public"
)

// FetchProblem downloads the problem page and reads its title, solved.ac tier
// and algorithm tags.
func FetchProblem(s *Session, id int) (*Problem, error) {
	doc, err := s.GetDocument(s.problemURL(id))
	if err != nil {
		return nil, err
	}
	p, err := ParseProblem(doc)
	if err != nil {
		return nil, fmt.Errorf("problem %d: %w", id, err)
	}
	return p, nil
}

func ParseProblem(doc *goquery.Document) (*Problem, error) {
	title := doc.Find("#problem_title").First()
	if title.Length() == 0 {
		return nil, fmt.Errorf("%w: no #problem_title", ErrMalformedPage)
	}
	src := doc.Find(".solvedac-tier").First().AttrOr("src", "")
	m := tierRule.FindStringSubmatch(src)
	if m == nil {
		return nil, fmt.Errorf("%w: no tier badge", ErrMalformedPage)
	}
	tier, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: tier %q", ErrMalformedPage, m[1])
	}
	list := doc.Find("#problem_tags").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: no #problem_tags", ErrMalformedPage)
	}
	tags := make([]string, 0)
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a").First()
		if a.Length() == 0 {
			return
		}
		tags = append(tags, strings.TrimSpace(a.Text()))
	})
	return &Problem{Name: strings.TrimSpace(title.Text()), Tier: tier, Tags: tags}, nil
}

type ResolveResult struct {
	Problems        map[int]Problem
	BudgetExhausted bool
}

// ResolveMissingProblems fetches the problems of roster that are not in known.
// Recent competitions are visited first so that they win when the request
// budget runs out. Pages that cannot be parsed are skipped and retried on the
// next run.
func ResolveMissingProblems(s *Session, roster []Competition, known map[int]Problem) (ResolveResult, error) {
	res := ResolveResult{Problems: make(map[int]Problem)}
	for i := len(roster) - 1; i >= 0; i-- {
		for _, id := range roster[i].Problems {
			if _, ok := known[id]; ok {
				continue
			}
			if _, ok := res.Problems[id]; ok {
				continue
			}
			p, err := FetchProblem(s, id)
			if errors.Is(err, public.ErrRequestLimitExceeded) {
				res.BudgetExhausted = true
				return res, nil
			}
			if errors.Is(err, ErrMalformedPage) {
				s.log().WithError(err).Warn("skipping problem")
				continue
			}
			if err != nil {
				return ResolveResult{}, err
			}
			s.log().WithField("problem", id).Debugf("fetched %s", p.Name)
			res.Problems[id] = *p
		}
	}
	return res, nil
}

// MergeProblems adds fresh to a copy of known without replacing known entries.
func MergeProblems(known, fresh map[int]Problem) map[int]Problem {
	merged := make(map[int]Problem, len(known)+len(fresh))
	for id, p := range known {
		merged[id] = p
	}
	for id, p := range fresh {
		if _, ok := merged[id]; !ok {
			merged[id] = p
		}
	}
	return merged
}
