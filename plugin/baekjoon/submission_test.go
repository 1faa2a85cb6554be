package baekjoon_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/oi-archive/boj-collector/plugin/baekjoon"
	"github.com/oi-archive/boj-collector/plugin/baekjoon/fakeboj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRows(t *testing.T, page string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc.Find("tbody tr")
}

func parseRow(t *testing.T, row fakeboj.Row) (*baekjoon.Submission, error) {
	t.Helper()
	rows := parseRows(t, fakeboj.StatusPage([]fakeboj.Row{row}))
	require.Equal(t, 1, rows.Length())
	return baekjoon.ParseSubmission(rows.First())
}

func TestNormalizeResultCode(t *testing.T) {
	tests := []struct {
		class string
		want  string
	}{
		{"result-ac", "AC"},
		{"result-wa", "WA"},
		{"result-tle", "TLE"},
		{"result-rejudge-wait", "REJUDGE-WAIT"},
		{"result-judging", "JUDGING"},
		{" result-ce ", "CE"},
	}
	for _, tt := range tests {
		got := baekjoon.NormalizeResultCode(tt.class)
		assert.Equal(t, tt.want, got, tt.class)
		assert.Equal(t, got, baekjoon.NormalizeResultCode(got), "normalizing %q twice", tt.class)
	}
}

func TestParseSubmission(t *testing.T) {
	sub, err := parseRow(t, fakeboj.Row{
		ID: 41234567, Username: "alice", ProblemID: 1000, ProblemName: "A+B", Tier: 1,
		Result: "ac", Message: "맞았습니다!!", Memory: "2020", Time: "0",
		Language: "C++17", Length: "142", When: "2022-03-01 12:34:56",
	})
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, 41234567, sub.ID)
	assert.Equal(t, "alice", sub.Username)
	assert.Equal(t, 1000, sub.ProblemID)
	assert.Equal(t, "A+B", sub.ProblemName)
	require.NotNil(t, sub.Tier)
	assert.Equal(t, 1, *sub.Tier)
	assert.Equal(t, "AC", sub.ResultCode)
	assert.Equal(t, "맞았습니다!!", sub.ResultMessage)
	require.NotNil(t, sub.Memory)
	assert.Equal(t, 2020, *sub.Memory)
	require.NotNil(t, sub.Time)
	assert.Equal(t, 0, *sub.Time)
	assert.Equal(t, "C++17", sub.Language)
	require.NotNil(t, sub.Length)
	assert.Equal(t, 142, *sub.Length)
	assert.Equal(t, "2022-03-01 12:34:56", sub.When)
}

func TestParseSubmissionOptionalFieldsAbsent(t *testing.T) {
	sub, err := parseRow(t, fakeboj.Row{
		ID: 7, Username: "bob", ProblemID: 1001, ProblemName: "A-B",
		Result: "ce", Message: "컴파일 에러", Language: "Python 3",
	})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Nil(t, sub.Tier)
	assert.Nil(t, sub.Memory)
	assert.Nil(t, sub.Time)
	assert.Nil(t, sub.Length)
	assert.Equal(t, "CE", sub.ResultCode)
	assert.Equal(t, "Python 3", sub.Language)
}

func TestParseSubmissionOwnSubmissionLanguage(t *testing.T) {
	row := `<table><tbody><tr id="solution-9"><td>9</td><td><a href="/user/me">me</a></td>` +
		`<td><a href="/problem/1000" title="A+B">1000</a></td>` +
		`<td class="result"><span class="result-text result-wa">틀렸습니다</span></td>` +
		`<td class="memory"></td><td class="time"></td>` +
		`<td>Java 11 / <a href="/submit/1000/9">수정</a></td>` +
		`<td>300<span class="byte-text">B</span></td><td><a title="2022-01-01 00:00:00">x</a></td></tr></tbody></table>`
	sub, err := baekjoon.ParseSubmission(parseRows(t, row).First())
	require.NoError(t, err)
	assert.Equal(t, "Java 11", sub.Language)
	assert.Equal(t, 300, *sub.Length)
	assert.Equal(t, "WA", sub.ResultCode)
	assert.Equal(t, "틀렸습니다", sub.ResultMessage)
}

func TestParseSubmissionNonBreakingSpace(t *testing.T) {
	sub, err := parseRow(t, fakeboj.Row{
		ID: 8, Username: "bob", ProblemID: 1001, ProblemName: "A-B",
		Result: "wa", Message: "틀렸습니다\u00a0(1%)", Language: "C99",
	})
	require.NoError(t, err)
	assert.Equal(t, "틀렸습니다 (1%)", sub.ResultMessage)
}

func TestParseSubmissionSkipsRowsWithoutUser(t *testing.T) {
	rows := parseRows(t, `<table><tbody><tr><td colspan="9">검색 결과가 없습니다.</td></tr></tbody></table>`)
	sub, err := baekjoon.ParseSubmission(rows.First())
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestParseSubmissionMalformed(t *testing.T) {
	base := fakeboj.Row{
		ID: 10, Username: "carol", ProblemID: 1002, ProblemName: "터렛",
		Result: "ac", Message: "맞았습니다!!", Memory: "1", Time: "1", Language: "C", Length: "1",
	}
	tests := []struct {
		name  string
		mod   func(r fakeboj.Row) fakeboj.Row
		patch func(html string) string
	}{
		{name: "non-numeric memory", mod: func(r fakeboj.Row) fakeboj.Row { r.Memory = "abc"; return r }},
		{name: "non-numeric length", mod: func(r fakeboj.Row) fakeboj.Row { r.Length = "1KB"; return r }},
		{name: "missing problem title", mod: func(r fakeboj.Row) fakeboj.Row { r.ProblemName = ""; return r }},
		{name: "missing result class", patch: func(h string) string {
			return strings.Replace(h, `class="result-text result-ac"`, `class="result-text"`, 1)
		}},
		{name: "missing row id", patch: func(h string) string {
			return strings.Replace(h, `<tr id="solution-10">`, `<tr>`, 1)
		}},
		{name: "missing problem link", patch: func(h string) string {
			return strings.Replace(h, `href="/problem/1002"`, `href="#"`, 1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base
			if tt.mod != nil {
				row = tt.mod(row)
			}
			page := fakeboj.StatusPage([]fakeboj.Row{row})
			if tt.patch != nil {
				page = tt.patch(page)
			}
			sub, err := baekjoon.ParseSubmission(parseRows(t, page).First())
			assert.Nil(t, sub)
			assert.True(t, errors.Is(err, baekjoon.ErrMalformedRow), "got %v", err)
		})
	}
}
