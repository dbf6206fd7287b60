package batch

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func describeHints(prompt string, locale string, sel ResolvedSelectors) DescribeHints {
	h := DescribeHints{Subject: prompt, Locale: locale}
	if sel.Breed != nil {
		h.Breed = sel.Breed.Name
	}
	if sel.Coat != nil {
		h.Coat = sel.Coat.Name
	}
	if sel.Style != nil {
		h.Style = sel.Style.Name
	}
	return h
}

// defaultDescription is used when the description service is unavailable.
func defaultDescription(h DescribeHints) string {
	tag, err := language.Parse(h.Locale)
	if err != nil {
		tag = language.Und
	}
	title := cases.Title(tag)

	name := strings.TrimSpace(h.Breed)
	if name == "" {
		name = "pet portrait"
	}
	var b strings.Builder
	b.WriteString(title.String(name))
	if coat := strings.TrimSpace(h.Coat); coat != "" {
		fmt.Fprintf(&b, " with a %s coat", strings.ToLower(coat))
	}
	if style := strings.TrimSpace(h.Style); style != "" {
		fmt.Fprintf(&b, " in %s style", strings.ToLower(style))
	}
	b.WriteString(".")
	if subject := strings.TrimSpace(h.Subject); subject != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimSuffix(subject, "."))
		b.WriteString(".")
	}
	return b.String()
}
