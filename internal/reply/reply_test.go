package reply

import (
	"encoding/json"
	"testing"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

func TestError(t *testing.T) {
	r := Error(InvalidID)
	if r.Status != protocol.StatusError || r.Msg != "invalid ticket id" {
		t.Errorf("got %+v", r)
	}

	data, _ := json.Marshal(r)
	if string(data) != `{"status":"er","msg":"invalid ticket id"}` {
		t.Errorf("wire = %s", data)
	}
}

func TestError_NotFoundIsNF(t *testing.T) {
	r := Error(NotFoundCode)
	if r.Status != protocol.StatusNotFound || r.Msg != "ticket not found" {
		t.Errorf("got %+v", r)
	}
}

func TestMessage_Unknown(t *testing.T) {
	if got := Message(Code("bogus")); got != "unknown error" {
		t.Errorf("got %q", got)
	}
}

func TestSuccess(t *testing.T) {
	r := Success(ActionClosed, protocol.CloseResult{ID: "T001", Stat: protocol.StatusDone, Res: "ok"})
	data, _ := json.Marshal(r)
	want := `{"status":"ok","action":"closed","data":{"id":"T001","stat":"done","res":"ok"}}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestList_NilBecomesEmpty(t *testing.T) {
	r := List(nil)
	if *r.Count != 0 {
		t.Errorf("count = %d", *r.Count)
	}
	data, _ := json.Marshal(r)
	if string(data) != `{"status":"ok","count":0,"data":[]}` {
		t.Errorf("got %s", data)
	}
}

func TestHelp(t *testing.T) {
	r := Help()
	syntax, ok := r.Data.(map[string]string)
	if !ok {
		t.Fatalf("data type %T", r.Data)
	}
	for _, action := range []string{"create", "update", "view", "close"} {
		if syntax[action] == "" {
			t.Errorf("missing syntax for %s", action)
		}
	}
}

func TestCategoriesCoversAll(t *testing.T) {
	for _, c := range protocol.Categories {
		if CategoryHelp[c] == "" {
			t.Errorf("no help for %s", c)
		}
	}
}
