package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultExcerptRunes 는 목록 응답에 싣는 요약 글자 수다.
const DefaultExcerptRunes = 140

var (
	markdownLinePrefix = regexp.MustCompile(`(?m)^\s{0,3}(#{1,6}\s+|>\s?|[-*+]\s+|\d+\.\s+)`)
	markdownLink       = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	markdownEmphasis   = strings.NewReplacer("**", "", "__", "", "`", "", "~~", "")
)

// PlainTextFromHTML 은 HTML 조각에서 텍스트 노드만 모아 공백 하나로 이어 붙인다.
// script/style 내용은 건너뛴다.
func PlainTextFromHTML(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var parts []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return collapseSpaces(strings.Join(parts, " ")), nil
}

// PlainTextFromMarkdown 은 목록 미리보기에 충분할 정도로만 마크다운 기호를 걷어낸다.
func PlainTextFromMarkdown(md string) string {
	s := markdownLinePrefix.ReplaceAllString(md, "")
	s = markdownLink.ReplaceAllString(s, "$1")
	s = markdownEmphasis.Replace(s)
	return collapseSpaces(s)
}

// Excerpt 는 포스트 본문에서 최대 maxRunes 글자의 미리보기 텍스트를 만든다.
func Excerpt(content string, isMarkdown bool, maxRunes int) string {
	var text string
	if isMarkdown {
		text = PlainTextFromMarkdown(content)
	} else {
		plain, err := PlainTextFromHTML(content)
		if err != nil {
			plain = collapseSpaces(content)
		}
		text = plain
	}
	return truncate(text, maxRunes)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate returns s truncated to max runes, with an ellipsis when cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "…"
}
