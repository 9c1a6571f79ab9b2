package feed_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/feed"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>OpenAI Status - Incident History</title>
    <atom:link href="https://status.openai.com/history.rss" rel="self"/>
    <item>
      <title>Elevated error rates on ChatGPT</title>
      <description>&lt;b&gt;Status: Investigating&lt;/b&gt;&lt;p&gt;We are looking into it.&lt;/p&gt;</description>
      <pubDate>Tue, 14 Oct 2025 09:15:30 +0000</pubDate>
      <link>https://status.openai.com/incidents/abc</link>
      <guid>https://status.openai.com/incidents/abc#1</guid>
    </item>
    <item>
      <title>Degraded API latency</title>
      <description>older</description>
      <pubDate>not a date</pubDate>
      <link>https://status.openai.com/incidents/def</link>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Google Cloud Service Health</title>
  <entry>
    <id>tag:status.cloud.google.com,2025:feed:xyz</id>
    <title>RESOLVED: Gemini API errors</title>
    <link rel="alternate" href="https://status.cloud.google.com/incidents/xyz"/>
    <updated>2025-10-12T20:01:02+02:00</updated>
    <summary type="html">&lt;p&gt;Resolved.&lt;/p&gt;</summary>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	entries, err := feed.Parse(strings.NewReader(rssDoc))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "https://status.openai.com/incidents/abc#1", first.ID)
	assert.Equal(t, "https://status.openai.com/incidents/abc#1", first.GUID)
	assert.Equal(t, "https://status.openai.com/incidents/abc", first.Link)
	assert.Equal(t, "Elevated error rates on ChatGPT", first.Title)
	assert.Equal(t, "<b>Status: Investigating</b><p>We are looking into it.</p>", first.Description)
	assert.Equal(t, []int{2025, 10, 14, 9, 15, 30, 1, 287, 0}, first.Published)

	second := entries[1]
	assert.Empty(t, second.ID)
	assert.Equal(t, "https://status.openai.com/incidents/def", second.Link)
	assert.Nil(t, second.Published)
}

func TestParse_Atom(t *testing.T) {
	entries, err := feed.Parse(strings.NewReader(atomDoc))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "tag:status.cloud.google.com,2025:feed:xyz", e.ID)
	assert.Equal(t, "https://status.cloud.google.com/incidents/xyz", e.Link)
	assert.Equal(t, "<p>Resolved.</p>", e.Description)
	// updated is used when published is missing, converted to UTC
	require.Len(t, e.Published, 9)
	assert.Equal(t, []int{2025, 10, 12, 18, 1, 2}, e.Published[:6])
}

func TestParse_EmptyChannel(t *testing.T) {
	entries, err := feed.Parse(strings.NewReader(`<rss><channel><title>x</title></channel></rss>`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParse_NotAFeed(t *testing.T) {
	_, err := feed.Parse(strings.NewReader(`<html><body>maintenance</body></html>`))
	assert.ErrorIs(t, err, feed.ErrNoEntries)

	_, err = feed.Parse(strings.NewReader(`{"json": true}`))
	assert.Error(t, err)
}

func TestParse_HTMLEntities(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item>
    <title>API&nbsp;down &mdash; investigating</title>
    <link>https://status.example.com/incidents/1</link>
    <pubDate>Tue, 14 Oct 2025 09:15:30 +0000</pubDate>
  </item>
</channel></rss>`

	entries, err := feed.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "API\u00a0down \u2014 investigating", entries[0].Title)
	assert.Equal(t, "https://status.example.com/incidents/1", entries[0].Link)
}

func TestParse_DeclaredCharset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<rss version=\"2.0\"><channel><item>" +
		"<title>Caf\xe9 API degraded</title>" +
		"<description>R\xe9solu</description>" +
		"</item></channel></rss>"

	entries, err := feed.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Café API degraded", entries[0].Title)
	assert.Equal(t, "Résolu", entries[0].Description)
}

func TestTimeParts(t *testing.T) {
	ts := time.Date(2024, time.February, 29, 23, 59, 58, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, []int{2024, 2, 29, 22, 59, 58, 3, 60, 0}, feed.TimeParts(ts))
}

func TestValidators_IsZero(t *testing.T) {
	assert.True(t, feed.Validators{}.IsZero())
	assert.False(t, feed.Validators{ETag: `"abc"`}.IsZero())
}
