package baekjoon

import (
	"errors"
	"fmt"
	"slices"

	"github.com/PuerkitoBio/goquery"
	"github.com/oi-archive/boj-collector/plugin/public"
	"github.com/sirupsen/logrus"
)

// result codes of submissions that are still being graded
var pendingCodes = map[string]bool{
	"WAIT":         true,
	"REJUDGE-WAIT": true,
	"COMPILE":      true,
	"JUDGING":      true,
}

func IsPending(resultCode string) bool {
	return pendingCodes[resultCode]
}

type SyncResult struct {
	// Submissions newer than the watermark, ascending by id.
	Submissions []Submission
	// BudgetExhausted is set when the request limit ended the sync early.
	BudgetExhausted bool
	Pages           int
}

// TrimPending drops the pending submissions at the bottom of a status page
// (rows are newest first). It stops at the first graded row from the bottom,
// so a pending row above a graded one is kept.
func TrimPending(rows []Submission) []Submission {
	n := len(rows)
	for n > 0 && IsPending(rows[n-1].ResultCode) {
		n--
	}
	return rows[:n]
}

// FetchSubmissions fetches one status page of the group, newest first.
// top, when positive, asks for submissions with id <= top. It also returns the
// id of the oldest row on the page before pending rows were trimmed, or 0 for
// a page without rows.
func FetchSubmissions(s *Session, top int) ([]Submission, int, error) {
	doc, err := s.GetDocument(s.statusURL(top))
	if err != nil {
		return nil, 0, err
	}
	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, 0, fmt.Errorf("%w: status page has no table body (top=%d)", ErrMalformedPage, top)
	}
	rows := make([]Submission, 0)
	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		sub, err := ParseSubmission(tr)
		if err != nil {
			s.log().WithError(err).WithField("row", public.Selection2html(tr)).Warn("skipping submission row")
			return
		}
		if sub != nil {
			rows = append(rows, *sub)
		}
	})
	oldest := 0
	if len(rows) > 0 {
		oldest = rows[len(rows)-1].ID
	}
	return TrimPending(rows), oldest, nil
}

// FetchSubmissionsUntil walks the status pages from the newest submission
// backwards and returns every graded submission with id greater than until.
// Running out of requests is not an error: the submissions found so far are
// returned with BudgetExhausted set.
func FetchSubmissionsUntil(s *Session, until int) (SyncResult, error) {
	var res SyncResult
	log := s.log().WithField("until", until)
	top := 0
	for {
		log.WithFields(logrus.Fields{"page": res.Pages + 1, "top": top}).Info("fetching status page")
		rows, oldest, err := FetchSubmissions(s, top)
		if errors.Is(err, public.ErrRequestLimitExceeded) {
			res.BudgetExhausted = true
			break
		}
		if err != nil {
			return SyncResult{}, err
		}
		res.Pages++
		if len(rows) == 0 {
			if oldest > 0 {
				log.WithField("top", top).Info("status page has only pending submissions")
			}
			break
		}
		caughtUp := false
		for _, sub := range rows {
			if sub.ID <= until {
				caughtUp = true
				break
			}
			res.Submissions = append(res.Submissions, sub)
		}
		if caughtUp {
			break
		}
		// below the trimmed tail too, so pending rows stay out of this run
		top = oldest - 1
		if top < 1 {
			break
		}
	}
	slices.Reverse(res.Submissions)
	log.WithFields(logrus.Fields{
		"found":     len(res.Submissions),
		"pages":     res.Pages,
		"exhausted": res.BudgetExhausted,
	}).Info("status sync finished")
	return res, nil
}

// LatestSubmissionID returns the id of the newest stored submission, or 0.
func LatestSubmissionID(stored []Submission) int {
	if len(stored) == 0 {
		return 0
	}
	return stored[0].ID
}

// MergeSubmissions puts fresh (ascending) in front of stored (descending) and
// keeps the result strictly descending.
func MergeSubmissions(stored, fresh []Submission) []Submission {
	head := LatestSubmissionID(stored)
	merged := make([]Submission, 0, len(stored)+len(fresh))
	for i := len(fresh) - 1; i >= 0; i-- {
		sub := fresh[i]
		if sub.ID <= head {
			continue
		}
		if n := len(merged); n > 0 && sub.ID >= merged[n-1].ID {
			continue
		}
		merged = append(merged, sub)
	}
	return append(merged, stored...)
}
