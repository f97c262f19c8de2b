package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	down     bool
	linkDown bool
	calls    []string
	findings []map[string]any
	nextID   int
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, r.Method+" "+r.URL.Path)
	if a.down || (a.linkDown && r.URL.Path == linkPath) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case visitsPath, findingsPath:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path == findingsPath {
			a.findings = append(a.findings, body)
		}
		a.nextID++
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "id-" + strconv.Itoa(a.nextID)})
	case linkPath:
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	case prefillPath:
		hint := "12.50"
		if r.URL.Query().Get("itemCode") != "AO-ALCU" {
			_ = json.NewEncoder(w).Encode(map[string]any{"hint": nil})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hint": hint})
	default:
		http.NotFound(w, r)
	}
}

func (a *fakeAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := NewMemoryStore()
	tr := NewHTTPTransport(srv.URL, 0)
	return &Client{
		HTTP:   tr,
		Queue:  &Queue{Store: store, Transport: tr},
		Drafts: NewDraftStore(store),
	}, api
}

func TestCreateVisitOnlineClearsDraft(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	out, err := c.CreateVisit(ctx, VisitInput{SiteName: "Plant", Address: "1 Main", TechUserID: "tech-demo"})
	require.NoError(t, err)
	require.False(t, out.SavedOffline)
	require.Equal(t, "id-1", out.ID)

	var draft VisitInput
	found, err := c.Drafts.Load(ctx, newVisitDraft, &draft)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCreateVisitOfflineQueuesAndReplays(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()
	api.down = true

	out, err := c.CreateVisit(ctx, VisitInput{SiteName: "Plant", Address: "1 Main", TechUserID: "tech-demo"})
	require.NoError(t, err)
	require.True(t, out.SavedOffline)

	var draft VisitInput
	found, err := c.Drafts.Load(ctx, newVisitDraft, &draft)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Plant", draft.SiteName)

	pending, err := c.Queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, visitsPath, pending[0].URL)

	api.mu.Lock()
	api.down = false
	api.mu.Unlock()
	res, err := c.Queue.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Sent)
	require.Equal(t, []string{"POST " + visitsPath, "POST " + visitsPath}, api.Calls())
}

func TestSaveFindingQueuesOnlyFailedLink(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()
	api.linkDown = true

	out, err := c.SaveFinding(ctx, "visit-1", "AO-ALCU", DecisionDraft{Decision: "Yes", Attachments: []string{"att-1"}})
	require.NoError(t, err)
	require.False(t, out.SavedOffline)
	require.True(t, out.LinkQueued)

	pending, err := c.Queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, linkPath, pending[0].URL)
	require.JSONEq(t, `{"findingId":"id-1","attachmentIds":["att-1"]}`, string(pending[0].Body))
}

func TestSaveAllIsSequentialInCodeOrder(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SaveDecision(ctx, "visit-1", "SVC-UPG", DecisionDraft{Decision: "No"}))
	require.NoError(t, c.SaveDecision(ctx, "visit-1", "AO-ALCU", DecisionDraft{Decision: "Yes", Attachments: []string{"att-1"}}))
	require.NoError(t, c.SaveDecision(ctx, "visit-1", "HND-TIE", DecisionDraft{}))

	outcomes, err := c.SaveAll(ctx, "visit-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, "AO-ALCU", outcomes[0].ItemCode)
	require.Equal(t, []string{
		"POST " + findingsPath,
		"POST " + linkPath,
		"POST " + findingsPath,
	}, api.Calls())
	require.Equal(t, "visit-1", api.findings[0]["visitId"])
	require.Equal(t, "SVC-UPG", api.findings[1]["itemCode"])
}

func TestPricingHint(t *testing.T) {
	c, _ := newTestClient(t)
	hint, err := c.PricingHint(context.Background(), "visit-1", "AO-ALCU")
	require.NoError(t, err)
	require.NotNil(t, hint)
	require.Equal(t, "12.50", *hint)

	hint, err = c.PricingHint(context.Background(), "visit-1", "HND-TIE")
	require.NoError(t, err)
	require.Nil(t, hint)
}
