package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// newPagedClient serves a two-page message listing: m1,m2 then m3,m4.
func newPagedClient(t *testing.T) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := &gmail.ListMessagesResponse{}
		if r.URL.Query().Get("pageToken") == "" {
			resp.Messages = []*gmail.Message{{Id: "m1"}, {Id: "m2"}}
			resp.NextPageToken = "page-2"
		} else {
			resp.Messages = []*gmail.Message{{Id: "m3"}, {Id: "m4"}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("gmail service: %v", err)
	}
	return &Client{svc: svc}
}

func TestSearchUncappedDrainsAllPages(t *testing.T) {
	client := newPagedClient(t)

	ids, err := client.Search(context.Background(), "in:anywhere", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []string{"m1", "m2", "m3", "m4"}
	if len(ids) != len(want) {
		t.Fatalf("Search returned %d ids %v, want %d", len(ids), ids, len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestSearchStopsAtCap(t *testing.T) {
	client := newPagedClient(t)

	ids, err := client.Search(context.Background(), "in:anywhere", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Search returned %d ids %v, want 3", len(ids), ids)
	}
	if ids[0] != "m1" || ids[1] != "m2" || ids[2] != "m3" {
		t.Errorf("ids = %v", ids)
	}
}
