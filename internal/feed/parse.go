package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// dateLayouts are tried in order when decoding publish times. Status pages
// mostly emit RFC 1123 (RSS) or RFC 3339 (Atom); the rest cover common
// deviations such as single-digit days and missing seconds.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type document struct {
	XMLName xml.Name
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Items   []rssItem   `xml:"item"` // RSS 1.0 keeps items beside the channel
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Links       []rssLink `xml:"link"`
	GUID        string    `xml:"guid"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	Date        string    `xml:"date"` // dc:date
}

type rssLink struct {
	Href string `xml:"href,attr"`
	Text string `xml:",chardata"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// newDecoder is lenient about entities and encodings. AutoClose stays unset:
// xml.HTMLAutoClose lists "link", which would drop the RSS <link> text.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// Parse decodes an RSS 2.0, RSS 1.0 or Atom document into entries in feed
// order. Entries whose publish time cannot be decoded are kept with a nil
// Published field. HTML entities such as &nbsp; and non-UTF-8 encodings
// declared in the XML prolog are accepted.
func Parse(r io.Reader) ([]Entry, error) {
	var doc document
	if err := newDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	switch strings.ToLower(doc.XMLName.Local) {
	case "rss", "rdf":
	case "feed":
		return fromAtom(doc.Entries), nil
	default:
		return nil, fmt.Errorf("%w: root element %q", ErrNoEntries, doc.XMLName.Local)
	}

	items := doc.Channel.Items
	if len(items) == 0 {
		items = doc.Items
	}

	entries := make([]Entry, 0, len(items))
	for i := range items {
		item := &items[i]
		guid := strings.TrimSpace(item.GUID)
		pub := item.PubDate
		if strings.TrimSpace(pub) == "" {
			pub = item.Date
		}
		entries = append(entries, Entry{
			ID:          guid,
			GUID:        guid,
			Link:        item.link(),
			Title:       strings.TrimSpace(item.Title),
			Description: item.Description,
			Published:   parseDate(pub),
		})
	}
	return entries, nil
}

func fromAtom(atom []atomEntry) []Entry {
	entries := make([]Entry, 0, len(atom))
	for i := range atom {
		e := &atom[i]
		desc := e.Summary
		if strings.TrimSpace(desc) == "" {
			desc = e.Content
		}
		pub := e.Published
		if strings.TrimSpace(pub) == "" {
			pub = e.Updated
		}
		entries = append(entries, Entry{
			ID:          strings.TrimSpace(e.ID),
			Link:        e.link(),
			Title:       strings.TrimSpace(e.Title),
			Description: desc,
			Published:   parseDate(pub),
		})
	}
	return entries
}

func (i *rssItem) link() string {
	for _, l := range i.Links {
		if text := strings.TrimSpace(l.Text); text != "" {
			return text
		}
	}
	return ""
}

func (e *atomEntry) link() string {
	var fallback string
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
		if fallback == "" {
			fallback = l.Href
		}
	}
	return fallback
}

func parseDate(value string) []int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return TimeParts(t)
		}
	}
	return nil
}

// TimeParts converts t to the broken-down UTC representation used by
// Entry.Published. Weekday counts from Monday as 0.
func TimeParts(t time.Time) []int {
	t = t.UTC()
	return []int{
		t.Year(),
		int(t.Month()),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
		(int(t.Weekday()) + 6) % 7,
		t.YearDay(),
		0,
	}
}
