// Package issue turns GitHub issues into feed submissions.
package issue

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnparsable is returned when an issue carries neither a name/URL pair
// nor a bare URL.
var ErrUnparsable = errors.New("no site name and rss url found in issue")

// Usage is the text posted back when a submission cannot be parsed.
const Usage = "抱歉，无法从您的Issue中提取有效的网站名称和RSS URL。请按照以下格式提交：\n\n" +
	"网站名称: 示例网站\nRSS URL: https://example.com/feed.xml"

var (
	nameLine = regexp.MustCompile(`(?i)(?:网站名称|site name)\s*[:：]\s*(.+)`)
	urlLine  = regexp.MustCompile(`(?i)rss url\s*[:：]\s*(.+)`)
	bareURL  = regexp.MustCompile(`https?://\S+`)
)

// Submission is a feed requested through an issue.
type Submission struct {
	Name string
	URL  string
}

// Parse extracts a submission from an issue. The body is tried first as
//
//	网站名称: <name>
//	RSS URL: <url>
//
// and otherwise the first http(s) URL in the body is taken, named after the
// issue title.
func Parse(title, body string) (Submission, error) {
	name := firstGroup(nameLine, body)
	url := firstGroup(urlLine, body)
	if name != "" && url != "" {
		return Submission{Name: name, URL: url}, nil
	}

	if u := bareURL.FindString(body); u != "" {
		if t := strings.TrimSpace(title); t != "" {
			return Submission{Name: t, URL: u}, nil
		}
	}
	return Submission{}, ErrUnparsable
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
