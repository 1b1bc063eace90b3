package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/analyzer"
	"github.com/clipforge/clipforge/internal/model"
)

// buildContents derives one text artifact per supported content type from the
// transcript and the ranked highlights.
func buildContents(project *model.Project, res *analyzer.Result, now time.Time) []model.Content {
	out := make([]model.Content, 0, len(model.ContentTypes()))
	for _, t := range model.ContentTypes() {
		c := model.Content{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Type:      t,
			CreatedAt: now,
		}
		switch t {
		case model.ContentBlog:
			c.Title = project.Title + ": Key Takeaways"
			c.Body = blogBody(project, res)
		case model.ContentTwitter:
			c.Body = twitterBody(project, res)
		case model.ContentLinkedIn:
			c.Body = linkedInBody(project, res)
		}
		out = append(out, c)
	}
	return out
}

func blogBody(project *model.Project, res *analyzer.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: Key Takeaways\n\n", project.Title)
	for _, h := range res.Highlights {
		fmt.Fprintf(&b, "## %s\n\n", h.Title)
		fmt.Fprintf(&b, "%s\n\n", segmentText(res.Transcript, h))
	}
	fmt.Fprintf(&b, "Watch the full %d-minute video for the complete story.\n", res.Duration/60)
	return b.String()
}

func twitterBody(project *model.Project, res *analyzer.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The biggest lessons from \"%s\", in one thread:\n", project.Title)
	for i, h := range res.Highlights {
		fmt.Fprintf(&b, "\n%d/ %s\n", i+1, h.Title)
	}
	b.WriteString("\nRT if this helped!")
	return b.String()
}

func linkedInBody(project *model.Project, res *analyzer.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I just broke down \"%s\" into its strongest moments:\n\n", project.Title)
	for _, h := range res.Highlights {
		fmt.Fprintf(&b, "• %s\n", h.Title)
	}
	b.WriteString("\nEvery long-form video holds short-form gold.")
	return b.String()
}

// segmentText returns the transcript text overlapping the highlight window,
// falling back to the highlight title when nothing overlaps.
func segmentText(tr *model.Transcript, h model.Highlight) string {
	var parts []string
	for _, seg := range tr.Segments {
		if seg.Start < h.EndTime && seg.End > h.StartTime {
			parts = append(parts, seg.Text)
		}
	}
	if len(parts) == 0 {
		return h.Title
	}
	return strings.Join(parts, " ")
}
