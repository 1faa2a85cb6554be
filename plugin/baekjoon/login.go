package baekjoon

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// statusTab is only rendered in the group menu for logged-in members.
const statusTab = "채점 현황"

// EnsureLogin spends one request on the group page and checks that the
// session's cookies belong to a member of the group.
func EnsureLogin(s *Session) error {
	doc, err := s.GetDocument(s.groupURL())
	if err != nil {
		return err
	}
	found := false
	doc.Find("ul.nav.nav-pills").First().Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if strings.TrimSpace(li.Text()) == statusTab {
			found = true
		}
		return !found
	})
	if !found {
		s.log().WithField("group", s.GroupID).Error("not logged in, check the bojautologin and OnlineJudge cookies")
		return fmt.Errorf("%w: group %s", ErrNotLoggedIn, s.GroupID)
	}
	s.log().WithField("group", s.GroupID).Info("login state checked")
	return nil
}
