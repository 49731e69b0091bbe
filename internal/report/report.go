package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/FranksOps/curator/internal/storage"
)

// topN is how many videos the summary lists by view count.
const topN = 5

// Summary contains aggregated metrics about one export batch.
type Summary struct {
	Topic         string
	TotalVideos   int
	TotalViews    int64
	TotalLikes    int64
	TotalComments int64
	Earliest      time.Time
	Latest        time.Time
	TopByViews    []*storage.VideoMetrics
	TagCounts     map[string]int
}

// GenerateSummary aggregates a batch of records. The input is not reordered.
func GenerateSummary(topic string, records []*storage.VideoMetrics) Summary {
	s := Summary{
		Topic:     topic,
		TagCounts: make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	s.Earliest = records[0].PublishedAt
	s.Latest = records[0].PublishedAt

	for _, r := range records {
		s.TotalVideos++
		s.TotalViews += r.ViewCount
		s.TotalLikes += r.LikeCount
		s.TotalComments += r.CommentCount
		for _, tag := range r.Tags {
			s.TagCounts[tag]++
		}

		if r.PublishedAt.Before(s.Earliest) {
			s.Earliest = r.PublishedAt
		}
		if r.PublishedAt.After(s.Latest) {
			s.Latest = r.PublishedAt
		}
	}

	ranked := make([]*storage.VideoMetrics, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ViewCount > ranked[j].ViewCount
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	s.TopByViews = ranked

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Curator Report: {{.Topic}}
------------------
Videos:        {{.TotalVideos}}
{{- if .TotalVideos}}
Published:     {{.Earliest.Format "2006-01-02"}} - {{.Latest.Format "2006-01-02"}}
{{- end}}
Total Views:   {{.TotalViews}}
Total Likes:   {{.TotalLikes}}
Comments:      {{.TotalComments}}

Top Videos:
{{- range $i, $v := .TopByViews}}
  {{inc $i}}. {{$v.Title}} ({{$v.VideoID}}) - {{$v.ViewCount}} views
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}
