// Package extract pulls detected Name/Address/Phone values out of search candidates and listing pages.
package extract

import (
	"regexp"
	"strings"

	"github.com/ttacon/libphonenumber"

	"github.com/jonathan/nap-verifier/internal/napmatch"
)

// Candidate is one search hit returned by the retrieval collaborator.
type Candidate struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
}

// Detected is what the engine read off a listing. Nil fields were not found.
type Detected struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	FoundURL   *string `json:"found_url,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Complete reports whether all three fields were detected.
func (d Detected) Complete() bool {
	return d.Name != nil && d.Address != nil && d.Phone != nil
}

var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

var (
	phonePattern = regexp.MustCompile(`0\d{1,4}[-\s]?\d{1,4}[-\s]?\d{3,4}`)

	// prefecture, then at most 40 runes up to a lot number such as 1-2-3 or 1丁目2番3号
	addressPattern = regexp.MustCompile(
		`(?:` + strings.Join(prefectures, "|") + `)` +
			`[^,、。|｜\n]{0,40}?\d+(?:(?:丁目|番地|番|号|[-‐－−ー])\d+)*(?:番地|番|号)?`,
	)

	bracketed = regexp.MustCompile(`【[^】]*】|\[[^\]]*\]|［[^］]*］|（[^）]*）|\([^)]*\)|〔[^〕]*〕`)

	phoneDashes = strings.NewReplacer("－", "-", "‐", "-", "‑", "-", "−", "-", "–", "-", "—", "-", "―", "-", "ー", "-", "ｰ", "-")

	titleSeparators = []string{" | ", "｜", " - ", " – ", " — ", "－", " :: "}
)

// FindPhone returns the first phone-number-looking substring, preferring one libphonenumber
// accepts as a Japanese number. Postal codes (after 〒) are skipped.
func FindPhone(text string) *string {
	text = phoneDashes.Replace(napmatch.FoldDigits(text))
	var first *string
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		if strings.HasSuffix(strings.TrimSpace(text[:loc[0]]), "〒") {
			continue
		}
		m := text[loc[0]:loc[1]]
		if validPhone(m) {
			return &m
		}
		if first == nil {
			first = &m
		}
	}
	return first
}

func validPhone(s string) bool {
	num, err := libphonenumber.Parse(s, "JP")
	return err == nil && libphonenumber.IsValidNumber(num)
}

// FindAddress returns the first address that starts with a known prefecture and ends in a lot number.
func FindAddress(text string) *string {
	m := addressPattern.FindString(napmatch.FoldDigits(text))
	if m == "" {
		return nil
	}
	return &m
}

// CleanTitle strips the trailing site name and bracketed annotations from a page title.
func CleanTitle(title, siteName string) *string {
	name := title
	for _, sep := range titleSeparators {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
		}
	}
	if siteName != "" {
		name = strings.TrimSuffix(strings.TrimSpace(name), siteName)
	}
	name = bracketed.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// FromCandidates reads the top candidate. No candidates means nothing was detected.
func FromCandidates(candidates []Candidate, siteName string) Detected {
	if len(candidates) == 0 {
		return Detected{}
	}
	top := candidates[0]
	text := top.Title + " " + top.Snippet

	d := Detected{
		Name:    CleanTitle(top.Title, siteName),
		Address: FindAddress(text),
		Phone:   FindPhone(text),
	}
	if top.Link != "" {
		link := top.Link
		d.FoundURL = &link
	}
	d.Confidence = confidence(d)
	return d
}

// Merge fills fields missing from d with those found in other.
func Merge(d, other Detected) Detected {
	if d.Name == nil {
		d.Name = other.Name
	}
	if d.Address == nil {
		d.Address = other.Address
	}
	if d.Phone == nil {
		d.Phone = other.Phone
	}
	if d.FoundURL == nil {
		d.FoundURL = other.FoundURL
	}
	d.Confidence = confidence(d)
	return d
}

func confidence(d Detected) float64 {
	n := 0
	for _, f := range []*string{d.Name, d.Address, d.Phone} {
		if f != nil {
			n++
		}
	}
	return float64(n) / 3
}
