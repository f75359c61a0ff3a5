package guide

import (
	"fmt"
	"strings"
)

// RenderMarkdown formats a guide as markdown text. Pure templating over the
// already-computed guide: the same guide always renders to identical bytes.
func RenderMarkdown(g *Guide) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Writing Guide: %s\n\n", g.Category)

	if g.Status == StatusInsufficientData {
		b.WriteString("> Not enough analyzed posts for this category yet — showing baseline recommendations.\n\n")
	} else {
		fmt.Fprintf(&b, "> Based on %d analyzed top-ranked posts. Confidence: %.0f%%.\n\n",
			g.SampleCount, g.Confidence*100)
	}

	r := g.Rules

	b.WriteString("## Title\n\n")
	fmt.Fprintf(&b, "- Length: %d-%d characters (aim for %d)\n",
		r.Title.MinLength, r.Title.MaxLength, r.Title.OptimalLength)
	if r.Title.IncludeKeyword {
		fmt.Fprintf(&b, "- Include the keyword, placed at the %s of the title\n",
			positionLabel(r.Title.KeywordPosition))
	} else {
		b.WriteString("- Keyword in the title is optional for this category\n")
	}

	b.WriteString("\n## Content\n\n")
	fmt.Fprintf(&b, "- Length: %d-%d characters (aim for %d)\n",
		r.Content.MinLength, r.Content.MaxLength, r.Content.OptimalLength)
	fmt.Fprintf(&b, "- Mention the keyword %d-%d times\n",
		r.Content.KeywordCountMin, r.Content.KeywordCountMax)
	fmt.Fprintf(&b, "- Keyword density: %.2f-%.2f per 1000 characters\n",
		r.Content.KeywordDensityMin, r.Content.KeywordDensityMax)

	b.WriteString("\n## Media\n\n")
	fmt.Fprintf(&b, "- Images: %d-%d (aim for %d)\n",
		r.Media.ImageMin, r.Media.ImageMax, r.Media.ImageOptimal)
	if r.Media.UseVideo {
		b.WriteString("- Add at least one video — top posts in this category use them\n")
	}

	b.WriteString("\n## Structure\n\n")
	fmt.Fprintf(&b, "- Section headings: %d-%d\n", r.Structure.HeadingMin, r.Structure.HeadingMax)
	if r.Extras.IncludeMap {
		b.WriteString("- Embed a map — common in top posts for this category\n")
	}
	if r.Extras.IncludeExternalLink {
		b.WriteString("- Link to at least one external source\n")
	}

	return b.String()
}

func positionLabel(position string) string {
	switch position {
	case "front":
		return "beginning"
	case "middle":
		return "middle"
	case "end":
		return "end"
	default:
		return "beginning"
	}
}
