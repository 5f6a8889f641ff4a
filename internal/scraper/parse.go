package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	selPageContent = ".nass"
	selSearch      = "div.text-left"
	selIndex       = "div.betaka-index"
	selTOC         = "h4 + ul > li"
	selTOCNav      = ".s-nav"
	selChapters    = "ul a[href*='/book/']"
	selAuthor      = "h1 + div a"
	selTitle       = "h1 a"
	selCopyButton  = "a.btn_tag"
	selPageNumber  = "input#fld_goto_bottom"
	selPartsMenu   = `#fld_part_top ~ div ul[role="menu"]`
	selLastPage    = "input#fld_goto_bottom + a + a"

	selDeadLinks = `a[href^="javascript"], a[href="#"]`
)

func parseBookInfo(bookID int, bookURL string, metaDoc, firstPage *goquery.Document) (BookInfo, error) {
	metaContent := metaDoc.Find(selPageContent).First()
	if metaContent.Length() == 0 {
		return BookInfo{}, ErrPageContentMissing
	}
	metaContent.Find(selSearch).First().Remove()

	totalPages := NumberFromURL(firstPage.Find(selLastPage).First().AttrOr("href", ""))

	tocEls := metaDoc.Find(selIndex)
	tocEls.Find(selDeadLinks).Remove()
	tocItems := tocEls.Find(selTOC)
	tocSource := tocEls.First()

	if tocItems.Length() == 0 {
		if nav := firstPage.Find(selTOCNav).First(); nav.Length() > 0 {
			nav.Find(selDeadLinks).Remove()
			tocItems = nav.Find("ul > li")
			tocSource = nav
		}
	}

	toc := []TocItem{}
	if tocItems.Length() > 0 {
		toc = parseTOC(tocItems, map[string]bool{})
	}

	var anchors *goquery.Selection
	if tocSource.Length() > 0 {
		anchors = tocSource.Find(selChapters)
	}
	if anchors == nil || anchors.Length() == 0 {
		anchors = metaContent.Find(selChapters)
	}

	about := metaContent.Clone()
	about.Find(selSearch).First().Remove()
	about.Find(selIndex).Remove()
	about.RemoveAttr("class")
	aboutHTML, err := goquery.OuterHtml(about)
	if err != nil {
		return BookInfo{}, fmt.Errorf("failed to render book description: %w", err)
	}

	title := strings.TrimSpace(metaDoc.Find(selTitle).First().Text())
	if title == "" {
		title = fmt.Sprintf("الكتاب %d", bookID)
	}

	return BookInfo{
		ID:           bookID,
		URL:          bookURL,
		Title:        title,
		Author:       strings.TrimSpace(metaDoc.Find(selAuthor).First().Text()),
		About:        aboutHTML,
		TOC:          toc,
		PageChapters: chaptersByPage(anchors),
		Volumes:      parseVolumes(firstPage, max(totalPages, 1)),
	}, nil
}

// parseTOC walks list items depth-first; seen drops repeated page:text entries
func parseTOC(items *goquery.Selection, seen map[string]bool) []TocItem {
	result := []TocItem{}

	items.Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a").First()
		href := link.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "javascript") || strings.HasPrefix(href, "#") {
			return
		}

		entry := TocItem{
			Page: NumberFromURL(href),
			Text: strings.TrimSpace(link.Text()),
		}
		key := fmt.Sprintf("%d:%s", entry.Page, entry.Text)
		if seen[key] {
			return
		}
		seen[key] = true

		if sub := item.ChildrenFiltered("ul").First().ChildrenFiltered("li"); sub.Length() > 0 {
			if children := parseTOC(sub, seen); len(children) > 0 {
				entry.Children = children
			}
		}
		result = append(result, entry)
	})

	return result
}

func chaptersByPage(anchors *goquery.Selection) map[int][]string {
	chapters := make(map[int][]string)

	anchors.Each(func(_ int, a *goquery.Selection) {
		page := NumberFromURL(a.AttrOr("href", ""))
		if page == 0 {
			return
		}
		if _, ok := chapters[page]; !ok {
			chapters[page] = []string{}
		}
		if text := strings.TrimSpace(a.Text()); text != "" {
			chapters[page] = append(chapters[page], text)
		}
	})

	return chapters
}

// parseVolumes reads the parts menu; its first entry is "all parts" and is skipped
func parseVolumes(firstPage *goquery.Document, totalPages int) map[string][2]int {
	menu := firstPage.Find(selPartsMenu).First()
	if menu.Length() == 0 {
		return map[string][2]int{}
	}

	starts := make(map[string]int)
	parts := menu.Find("li a")
	if parts.Length() > 1 {
		parts.Slice(1, parts.Length()).Each(func(_ int, part *goquery.Selection) {
			name := strings.TrimSpace(part.Text())
			page := NumberFromURL(part.AttrOr("href", ""))
			if name != "" && page != 0 {
				starts[name] = page
			}
		})
	}
	return StartEndPages(starts, totalPages)
}

// cleanPageHTML strips copy buttons, empty spans and the inline font size,
// returning the inner container of the page body
func cleanPageHTML(content *goquery.Selection) (string, error) {
	content.Find(selCopyButton).Remove()
	content.Find("span").Each(func(_ int, span *goquery.Selection) {
		if strings.TrimSpace(span.Text()) == "" {
			span.Remove()
		}
	})
	content.Find(`p[style="font-size: 15px"]`).RemoveAttr("style")

	container := content.Find("div").First()
	if container.Length() == 0 {
		container = content
	}
	return goquery.OuterHtml(container)
}
