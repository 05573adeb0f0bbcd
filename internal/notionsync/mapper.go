package notionsync

import (
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names shared by the insight and alert databases.
const (
	PropTitle       = "Title"
	PropUser        = "User"
	PropType        = "Type"
	PropDescription = "Description"
	PropCreated     = "Created"

	PropInsightID = "Insight ID"
	PropPriority  = "Priority"

	PropAlertID  = "Alert ID"
	PropSeverity = "Severity"
	PropDeadline = "Deadline"
)

// notionTextLimit is the maximum length of one rich text object.
const notionTextLimit = 2000

// InsightToNotionProperties converts an insight to the properties of a page
// in the insights database.
func InsightToNotionProperties(in domain.Insight) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:     titleProperty(in.Title),
		PropInsightID: richTextProperty(in.ID),
		PropUser:      richTextProperty(in.UserID),
		PropType:      selectProperty(string(in.Type)),
		PropPriority:  selectProperty(string(in.Priority)),
	}

	if in.Description != "" {
		props[PropDescription] = richTextProperty(in.Description)
	}
	if !in.CreatedAt.IsZero() {
		props[PropCreated] = dateProperty(in.CreatedAt)
	}
	props["Actionable"] = notionapi.CheckboxProperty{Checkbox: in.Actionable}

	return props
}

// AlertToNotionProperties converts a risk alert to the properties of a page
// in the alerts database.
func AlertToNotionProperties(a domain.RiskAlert) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:    titleProperty(a.Title),
		PropAlertID:  richTextProperty(a.ID),
		PropUser:     richTextProperty(a.UserID),
		PropType:     selectProperty(string(a.Type)),
		PropSeverity: selectProperty(string(a.Severity)),
	}

	if a.Description != "" {
		props[PropDescription] = richTextProperty(a.Description)
	}
	if a.Deadline != nil {
		props[PropDeadline] = dateProperty(*a.Deadline)
	}
	if !a.CreatedAt.IsZero() {
		props[PropCreated] = dateProperty(a.CreatedAt)
	}

	return props
}

func titleProperty(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Title: richText(s)}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{RichText: richText(s)}
}

func richText(s string) []notionapi.RichText {
	if runes := []rune(s); len(runes) > notionTextLimit {
		s = string(runes[:notionTextLimit])
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

// pageRichText returns the plain text of a rich text property of a page
// read back from Notion, or "" if absent.
func pageRichText(page notionapi.Page, name string) string {
	prop, ok := page.Properties[name]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	if rt.RichText[0].PlainText != "" {
		return rt.RichText[0].PlainText
	}
	if rt.RichText[0].Text != nil {
		return rt.RichText[0].Text.Content
	}
	return ""
}
