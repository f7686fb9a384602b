package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type InsightRow struct {
	InsightID   string `bigquery:"insight_id"`   // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED
	InsightType string `bigquery:"insight_type"` // REQUIRED

	Title    string `bigquery:"title"`    // REQUIRED
	Body     string `bigquery:"body"`     // REQUIRED
	Severity string `bigquery:"severity"` // REQUIRED

	Actions bigquery.NullJSON `bigquery:"actions"` // NULLABLE JSON array of {label, query}
	Data    bigquery.NullJSON `bigquery:"data"`    // NULLABLE JSON

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
	Embedding []float64 `bigquery:"embedding"`  // REPEATED FLOAT64
}

const insightColumns = `insight_id, household_id, insight_type, title, body, severity,
			actions, data, created_ts, embedding`

func insightRowFrom(in domain.Insight, now time.Time) (*InsightRow, error) {
	actions, err := jsonColumn(in.Actions)
	if err != nil {
		return nil, fmt.Errorf("insight %s actions: %w", in.ID, err)
	}
	data, err := jsonColumn(in.Data)
	if err != nil {
		return nil, fmt.Errorf("insight %s data: %w", in.ID, err)
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &InsightRow{
		InsightID:   in.ID,
		HouseholdID: in.HouseholdID,
		InsightType: in.Type,
		Title:       in.Title,
		Body:        in.Body,
		Severity:    string(in.Severity),
		Actions:     actions,
		Data:        data,
		CreatedTS:   createdAt,
		Embedding:   vector64(in.Embedding),
	}, nil
}

func (row *InsightRow) toDomain() (domain.Insight, error) {
	in := domain.Insight{
		ID:          row.InsightID,
		HouseholdID: row.HouseholdID,
		Type:        row.InsightType,
		Title:       row.Title,
		Body:        row.Body,
		Severity:    domain.Severity(row.Severity),
		CreatedAt:   row.CreatedTS,
		Embedding:   vector32(row.Embedding),
	}
	if err := decodeJSONColumn(row.Actions, &in.Actions); err != nil {
		return domain.Insight{}, fmt.Errorf("insight %s actions: %w", row.InsightID, err)
	}
	if err := decodeJSONColumn(row.Data, &in.Data); err != nil {
		return domain.Insight{}, fmt.Errorf("insight %s data: %w", row.InsightID, err)
	}
	return in, nil
}

type ChatMessageRow struct {
	MessageID   string `bigquery:"message_id"`   // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED
	Role        string `bigquery:"role"`         // REQUIRED: user | assistant
	Content     string `bigquery:"content"`      // REQUIRED

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE JSON

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
	Embedding []float64 `bigquery:"embedding"`  // REPEATED FLOAT64
}

func chatRowFrom(msg domain.ChatMessage, now time.Time) (*ChatMessageRow, error) {
	metadata, err := jsonColumn(msg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("message %s metadata: %w", msg.ID, err)
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &ChatMessageRow{
		MessageID:   msg.ID,
		HouseholdID: msg.HouseholdID,
		Role:        string(msg.Role),
		Content:     msg.Text,
		Metadata:    metadata,
		CreatedTS:   createdAt,
		Embedding:   vector64(msg.Embedding),
	}, nil
}

func (row *ChatMessageRow) toDomain() (domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		ID:          row.MessageID,
		HouseholdID: row.HouseholdID,
		Role:        domain.ChatRole(row.Role),
		Text:        row.Content,
		CreatedAt:   row.CreatedTS,
		Embedding:   vector32(row.Embedding),
	}
	if err := decodeJSONColumn(row.Metadata, &msg.Metadata); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("message %s metadata: %w", row.MessageID, err)
	}
	return msg, nil
}
