package baekjoon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oi-archive/boj-collector/plugin/public"
)

// 1=Bronze V, 2=Bronze IV, ... 6=Silver V, ...
var tierRule = regexp.MustCompile(`tier/(\d+)\.svg`)

// cell positions in a status table row
const (
	cellMemory   = 4
	cellTime     = 5
	cellLanguage = 6
	cellLength   = 7
	cellWhen     = 8
)

// NormalizeResultCode turns a result class such as "result-ac" or
// "result-rejudge-wait" into "AC" or "REJUDGE-WAIT". Normalizing an already
// normalized code returns it unchanged.
func NormalizeResultCode(class string) string {
	parts := strings.Split(strings.TrimSpace(class), "-")
	if len(parts) > 1 && strings.EqualFold(parts[0], "result") {
		parts = parts[1:]
	}
	return strings.ToUpper(strings.Join(parts, "-"))
}

// ParseSubmission reads one row of the status table. It returns nil without
// an error for rows that do not link to a user profile (headers, placeholders).
func ParseSubmission(row *goquery.Selection) (*Submission, error) {
	user := row.Find(`a[href^="/user/"]`).First()
	if user.Length() == 0 {
		return nil, nil
	}
	sub := &Submission{Username: strings.TrimPrefix(user.AttrOr("href", ""), "/user/")}
	if sub.Username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrMalformedRow)
	}

	rowID := row.AttrOr("id", "")
	if !strings.HasPrefix(rowID, "solution-") {
		return nil, fmt.Errorf("%w: row id %q", ErrMalformedRow, rowID)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(rowID, "solution-"))
	if err != nil {
		return nil, fmt.Errorf("%w: row id %q", ErrMalformedRow, rowID)
	}
	sub.ID = id

	problem := row.Find(`a[href^="/problem/"]`).First()
	if problem.Length() == 0 {
		return nil, fmt.Errorf("%w: submission %d has no problem link", ErrMalformedRow, id)
	}
	href := problem.AttrOr("href", "")
	sub.ProblemID, err = strconv.Atoi(strings.TrimPrefix(href, "/problem/"))
	if err != nil {
		return nil, fmt.Errorf("%w: submission %d problem link %q", ErrMalformedRow, id, href)
	}
	sub.ProblemName = problem.AttrOr("title", "")
	if sub.ProblemName == "" {
		return nil, fmt.Errorf("%w: submission %d has no problem title", ErrMalformedRow, id)
	}

	result := row.Find(".result-text").First()
	classes := strings.Fields(result.AttrOr("class", ""))
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: submission %d result class %q", ErrMalformedRow, id, result.AttrOr("class", ""))
	}
	sub.ResultCode = NormalizeResultCode(classes[1])
	if sub.ResultCode == "" {
		return nil, fmt.Errorf("%w: submission %d has an empty result code", ErrMalformedRow, id)
	}
	sub.ResultMessage = strings.TrimSpace(strings.ReplaceAll(result.Text(), "\u00a0", " "))

	row.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		m := tierRule.FindStringSubmatch(img.AttrOr("src", ""))
		if m == nil {
			return true
		}
		tier, _ := strconv.Atoi(m[1])
		sub.Tier = &tier
		return false
	})

	cells := row.Children()
	if sub.Memory, err = optionalInt(cells.Eq(cellMemory)); err != nil {
		return nil, fmt.Errorf("submission %d memory: %w", id, err)
	}
	if sub.Time, err = optionalInt(cells.Eq(cellTime)); err != nil {
		return nil, fmt.Errorf("submission %d time: %w", id, err)
	}
	if sub.Length, err = optionalInt(cells.Eq(cellLength)); err != nil {
		return nil, fmt.Errorf("submission %d length: %w", id, err)
	}
	sub.Language = language(cells.Eq(cellLanguage))
	sub.When = cells.Eq(cellWhen).Children().First().AttrOr("title", "")
	return sub, nil
}

// optionalInt reads the own text of a cell; unit suffixes live in child spans.
func optionalInt(cell *goquery.Selection) (*int, error) {
	text := strings.TrimSpace(public.OwnText(cell))
	if text == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrMalformedRow, text)
	}
	return &v, nil
}

// language drops the "/ 수정" edit link shown on the viewer's own submissions.
func language(cell *goquery.Selection) string {
	text := strings.TrimSpace(public.OwnText(cell))
	text = strings.TrimSpace(strings.TrimSuffix(text, "/"))
	if text == "" {
		text = strings.TrimSpace(cell.Children().First().Text())
	}
	return text
}
