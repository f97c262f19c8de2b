package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"inspection-backend/internal/shared/telemetry"
)

const (
	visitsPath   = "/api/v1/visits"
	findingsPath = "/api/v1/findings"
	linkPath     = "/api/v1/attachments/link"
	prefillPath  = "/api/v1/pricing/prefill"

	newVisitDraft = "visit_new"
)

// VisitInput is the payload of a new visit.
type VisitInput struct {
	SiteName   string   `json:"siteName"`
	Address    string   `json:"address"`
	Verticals  []string `json:"verticals"`
	TechUserID string   `json:"techUserId"`
	VisitNotes string   `json:"visitNotes"`
}

// DecisionDraft is the technician's in-progress answer for one catalog item.
type DecisionDraft struct {
	Decision    string         `json:"decision"`
	OtherReason *string        `json:"otherReason"`
	Quantity    *float64       `json:"quantity"`
	UnitPrice   *string        `json:"unitPrice"`
	SendToQuote bool           `json:"sendToQuote"`
	Notes       string         `json:"notes"`
	Attachments []string       `json:"attachments"`
	ExtraFields map[string]any `json:"extraPromptFields"`
}

type findingPayload struct {
	VisitID  string `json:"visitId"`
	ItemCode string `json:"itemCode"`
	DecisionDraft
}

type linkPayload struct {
	FindingID     string   `json:"findingId"`
	AttachmentIDs []string `json:"attachmentIds"`
}

// Outcome reports how a mutation was handled.
type Outcome struct {
	ItemCode     string `json:"itemCode,omitempty"`
	ID           string `json:"id,omitempty"`
	SavedOffline bool   `json:"savedOffline"`
	LinkQueued   bool   `json:"linkQueued,omitempty"`
}

// Client performs field mutations live and falls back to the queue when the
// server cannot be reached or rejects the call.
type Client struct {
	HTTP   *HTTPTransport
	Queue  *Queue
	Drafts *DraftStore
}

// CreateVisit drafts the visit, posts it and clears the draft on success.
// On failure the post is queued and the draft kept.
func (c *Client) CreateVisit(ctx context.Context, in VisitInput) (Outcome, error) {
	if in.Verticals == nil {
		in.Verticals = []string{}
	}
	if err := c.Drafts.Save(ctx, newVisitDraft, in); err != nil {
		return Outcome{}, err
	}
	req, err := NewRequest(http.MethodPost, visitsPath, in)
	if err != nil {
		return Outcome{}, err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.HTTP.Do(ctx, req, &created); err != nil {
		c.offline(ctx, req, err)
		return Outcome{SavedOffline: true}, nil
	}
	if err := c.Drafts.Clear(ctx, newVisitDraft); err != nil {
		telemetry.Warn("client.clear_draft_failed", map[string]any{"error": err.Error()})
	}
	return Outcome{ID: created.ID}, nil
}

func decisionsKey(visitID string) string {
	return "visit_" + visitID + "_decisions"
}

// LoadDecisions returns the per-visit decisions draft keyed by item code.
func (c *Client) LoadDecisions(ctx context.Context, visitID string) (map[string]DecisionDraft, error) {
	out := map[string]DecisionDraft{}
	if _, err := c.Drafts.Load(ctx, decisionsKey(visitID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveDecision records one item's decision in the visit's draft.
func (c *Client) SaveDecision(ctx context.Context, visitID, itemCode string, d DecisionDraft) error {
	all, err := c.LoadDecisions(ctx, visitID)
	if err != nil {
		return err
	}
	all[itemCode] = d
	return c.Drafts.Save(ctx, decisionsKey(visitID), all)
}

// SaveFinding creates a finding and links its attachments. A failed create
// queues the create; a failed link queues only the link.
func (c *Client) SaveFinding(ctx context.Context, visitID, itemCode string, d DecisionDraft) (Outcome, error) {
	if d.Attachments == nil {
		d.Attachments = []string{}
	}
	if d.ExtraFields == nil {
		d.ExtraFields = map[string]any{}
	}
	create, err := NewRequest(http.MethodPost, findingsPath, findingPayload{VisitID: visitID, ItemCode: itemCode, DecisionDraft: d})
	if err != nil {
		return Outcome{}, err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.HTTP.Do(ctx, create, &created); err != nil {
		c.offline(ctx, create, err)
		return Outcome{ItemCode: itemCode, SavedOffline: true}, nil
	}
	out := Outcome{ItemCode: itemCode, ID: created.ID}
	if len(d.Attachments) == 0 || created.ID == "" {
		return out, nil
	}

	link, err := NewRequest(http.MethodPost, linkPath, linkPayload{FindingID: created.ID, AttachmentIDs: d.Attachments})
	if err != nil {
		return out, err
	}
	if err := c.HTTP.Do(ctx, link, nil); err != nil {
		c.offline(ctx, link, err)
		out.LinkQueued = true
	}
	return out, nil
}

// SaveAll saves every decided item of the visit's draft, one at a time in
// item-code order.
func (c *Client) SaveAll(ctx context.Context, visitID string) ([]Outcome, error) {
	all, err := c.LoadDecisions(ctx, visitID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(all))
	for code, d := range all {
		if d.Decision != "" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	outcomes := make([]Outcome, 0, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o, err := c.SaveFinding(ctx, visitID, code, all[code])
		if err != nil {
			return outcomes, fmt.Errorf("save %s: %w", code, err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// PricingHint asks the server for the last unit price used for itemCode at
// the visit's site. It is nil when there is none.
func (c *Client) PricingHint(ctx context.Context, visitID, itemCode string) (*string, error) {
	q := url.Values{}
	q.Set("visitId", visitID)
	q.Set("itemCode", itemCode)
	var resp struct {
		Hint *string `json:"hint"`
	}
	if err := c.HTTP.Do(ctx, Request{Method: http.MethodGet, URL: prefillPath + "?" + q.Encode()}, &resp); err != nil {
		return nil, err
	}
	return resp.Hint, nil
}

func (c *Client) offline(ctx context.Context, req Request, cause error) {
	var status *StatusError
	fields := map[string]any{"method": req.Method, "url": req.URL, "error": cause.Error()}
	if errors.As(cause, &status) {
		fields["status"] = status.StatusCode
	}
	queued := c.Queue.Enqueue(ctx, req)
	fields["request_id"] = queued.ID
	telemetry.Warn("client.saved_offline", fields)
}
