package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listingSelectors are tried in order for the block holding a business's NAP on a listing page.
var listingSelectors = []string{
	"[itemtype*='LocalBusiness']",
	"[itemtype*='Dentist']",
	"[itemtype*='MedicalClinic']",
	".shop-info",
	".clinic-info",
	".basic-info",
	"address",
	"main",
	"article",
}

// FromHTML extracts NAP values from a listing page. Structured data (itemprop) wins over
// free text found with the same patterns used for search snippets.
func FromHTML(html, siteName string) (Detected, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detected{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	var d Detected
	if v := itemprop(doc, "name"); v != "" {
		d.Name = &v
	} else if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		d.Name = CleanTitle(t, siteName)
	} else {
		d.Name = CleanTitle(strings.TrimSpace(doc.Find("title").First().Text()), siteName)
	}

	if v := itemprop(doc, "telephone"); v != "" {
		d.Phone = &v
	}
	if v := itemprop(doc, "address"); v != "" {
		d.Address = FindAddress(strings.ReplaceAll(v, " ", ""))
	}

	if d.Phone == nil || d.Address == nil {
		block := doc.Find("body")
		for _, sel := range listingSelectors {
			if s := doc.Find(sel); s.Length() > 0 {
				block = s.First()
				break
			}
		}
		text := strings.Join(strings.Fields(block.Text()), " ")
		if d.Phone == nil {
			d.Phone = FindPhone(text)
		}
		if d.Address == nil {
			d.Address = FindAddress(text)
		}
	}

	d.Confidence = confidence(d)
	return d, nil
}

func itemprop(doc *goquery.Document, prop string) string {
	sel := doc.Find(fmt.Sprintf("[itemprop='%s']", prop)).First()
	if sel.Length() == 0 {
		return ""
	}
	if content, ok := sel.Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
