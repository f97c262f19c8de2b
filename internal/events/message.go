package events

import (
	"encoding/json"
	"time"
)

// TypeReportGenerated identifies report.generated notifications.
const TypeReportGenerated = "report.generated"

// Message is the payload published to downstream consumers.
type Message struct {
	Type        string    `json:"type"`
	ReportID    string    `json:"reportId"`
	VisitID     string    `json:"visitId"`
	ReportType  string    `json:"reportType"`
	PDFURL      string    `json:"pdfUrl"`
	RequestID   string    `json:"requestId,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Version     int       `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
