package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"debrief/internal/domain"
)

// Wire markers used by the analysis server. Messages are plain text and are
// classified by literal prefix/substring, first match wins.
const (
	markerFatalMissingMeetingID = "meeting_id가 제공되지 않았습니다"
	markerStage1Done            = "1단계 완료"
	markerStage2Done            = "2단계 완료"
	markerStage3Done            = "3단계 완료"
	markerStage4Done            = "4단계 완료"

	errorPrefixEN  = "error:"
	errorPrefixKR1 = "오류:"
	errorPrefixKR2 = "에러:"
)

type inboundKind int

const (
	inboundUnknown inboundKind = iota
	inboundFatalError
	inboundServerError
	inboundStage1Done
	inboundStage2Done
	inboundStage3Done
	inboundStage4Done
)

// inbound is the typed result of classifying one wire message. Dispatch
// operates on this value and never re-reads the raw text.
type inbound struct {
	kind      inboundKind
	detail    string
	documents []domain.Document
	insights  []domain.KeyInsight
	markup    string
}

// classify maps one raw text message to its typed form, decoding any
// embedded payload. A returned error means the message matched a stage
// marker but its payload was malformed.
func classify(text string, receivedAt time.Time) (inbound, error) {
	switch {
	case strings.Contains(text, markerFatalMissingMeetingID):
		return inbound{kind: inboundFatalError, detail: text}, nil

	case isServerError(text):
		return inbound{kind: inboundServerError, detail: text}, nil

	case strings.HasPrefix(text, markerStage1Done):
		// Trailing text is informational only.
		return inbound{kind: inboundStage1Done}, nil

	case strings.HasPrefix(text, markerStage2Done):
		documents, err := decodeDocuments(stagePayload(text, markerStage2Done), receivedAt)
		if err != nil {
			return inbound{}, err
		}
		return inbound{kind: inboundStage2Done, documents: documents}, nil

	case strings.HasPrefix(text, markerStage3Done):
		insights, err := decodeInsights(stagePayload(text, markerStage3Done))
		if err != nil {
			return inbound{}, err
		}
		return inbound{kind: inboundStage3Done, insights: insights}, nil

	case strings.HasPrefix(text, markerStage4Done):
		return inbound{kind: inboundStage4Done, markup: stagePayload(text, markerStage4Done)}, nil
	}

	return inbound{kind: inboundUnknown}, nil
}

func isServerError(text string) bool {
	if len(text) >= len(errorPrefixEN) && strings.EqualFold(text[:len(errorPrefixEN)], errorPrefixEN) {
		return true
	}
	return strings.HasPrefix(text, errorPrefixKR1) || strings.HasPrefix(text, errorPrefixKR2)
}

// stagePayload returns the text after a stage marker, with the optional
// colon separator stripped.
func stagePayload(text string, marker string) string {
	rest := strings.TrimSpace(text[len(marker):])
	rest = strings.TrimPrefix(rest, ":")
	return strings.TrimSpace(rest)
}

type rawDocument struct {
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Score *float64 `json:"score"`
}

func decodeDocuments(payload string, receivedAt time.Time) ([]domain.Document, error) {
	var raw []rawDocument
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document payload: %w", err)
	}

	documents := make([]domain.Document, 0, len(raw))
	for index, record := range raw {
		documents = append(documents, domain.Document{
			ID:    fmt.Sprintf("doc-%d-%d", receivedAt.UnixNano(), index),
			Title: record.Title,
			Type:  record.Type,
			Score: record.Score,
		})
	}
	return documents, nil
}

type rawInsight struct {
	Insight string  `json:"insight"`
	Score   float64 `json:"score"`
}

// decodeInsights projects the server's keyed mapping into a list, discarding
// the keys. Iteration order follows the decoded map and is not stable.
func decodeInsights(payload string) ([]domain.KeyInsight, error) {
	var raw map[string]rawInsight
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode insight payload: %w", err)
	}

	insights := make([]domain.KeyInsight, 0, len(raw))
	for _, record := range raw {
		insights = append(insights, domain.KeyInsight{
			ID:      uuid.New().String(),
			Insight: record.Insight,
			Score:   record.Score,
		})
	}
	return insights, nil
}
