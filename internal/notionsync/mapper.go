package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Board property names.
const (
	PropTitle     = "Title"
	PropActionID  = "Action ID"
	PropHousehold = "Household"
	PropType      = "Type"
	PropStatus    = "Status"
	PropDetail    = "Detail"
	PropCreated   = "Created"
	PropApproved  = "Approved"
	PropResult    = "Result"
)

// RecommendationToNotionProperties converts a recommendation action to board page properties.
func RecommendationToNotionProperties(a domain.RecommendationAction) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: a.Title},
				},
			},
		},
		PropActionID:  richTextProperty(a.ID),
		PropHousehold: richTextProperty(a.HouseholdID),
		PropType:      notionapi.SelectProperty{Select: notionapi.Option{Name: a.Type}},
		PropStatus:    notionapi.SelectProperty{Select: notionapi.Option{Name: string(a.Status)}},
	}

	if a.Detail != "" {
		props[PropDetail] = richTextProperty(a.Detail)
	}
	if !a.CreatedAt.IsZero() {
		props[PropCreated] = dateProperty(a.CreatedAt)
	}
	if a.ApprovedAt != nil {
		props[PropApproved] = dateProperty(*a.ApprovedAt)
	}
	if a.Result != "" {
		props[PropResult] = richTextProperty(a.Result)
	}
	return props
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

// extractRichText returns the plain text of a rich text property read back
// from Notion, or "" if absent.
func extractRichText(page notionapi.Page, name string) string {
	if prop, ok := page.Properties[name]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}

func extractSelect(page notionapi.Page, name string) string {
	if prop, ok := page.Properties[name]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			return sel.Select.Name
		}
	}
	return ""
}
