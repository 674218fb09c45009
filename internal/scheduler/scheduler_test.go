package scheduler

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

func TestAddJobFires(t *testing.T) {
	var calls atomic.Int32
	sched := New(nil)

	if err := sched.AddJob("tick", "@every 1s", func() { calls.Add(1) }); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d", sched.JobCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	sched.Start(ctx)

	if calls.Load() == 0 {
		t.Error("expected at least one call")
	}
}

func TestInvalidSchedule(t *testing.T) {
	sched := New(nil)
	if err := sched.AddJob("bad", "invalid-cron", func() {}); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if sched.JobCount() != 0 {
		t.Errorf("JobCount = %d", sched.JobCount())
	}
}

func TestAddJobReplacesSameName(t *testing.T) {
	sched := New(nil)
	sched.AddJob("digest", "@every 1h", func() {})
	sched.AddJob("digest", "@every 2h", func() {})
	sched.AddJob("other", "@daily", func() {})

	if sched.JobCount() != 2 {
		t.Fatalf("JobCount = %d", sched.JobCount())
	}
	if n := len(sched.cron.Entries()); n != 2 {
		t.Errorf("cron entries = %d", n)
	}
	if got := sched.Jobs(); len(got) != 2 || got[0] != "digest" || got[1] != "other" {
		t.Errorf("Jobs = %v", got)
	}
}

func TestRemove(t *testing.T) {
	sched := New(nil)
	sched.AddJob("digest", "@every 1h", func() {})
	sched.Remove("digest")
	sched.Remove("never-added")

	if sched.JobCount() != 0 || len(sched.cron.Entries()) != 0 {
		t.Errorf("job still scheduled")
	}
}

type fixedStats protocol.Stats

func (f fixedStats) Stats() protocol.Stats { return protocol.Stats(f) }

func TestDigest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Digest(fixedStats{
		Total:        5,
		HighPriority: 2,
		ByStatus:     map[protocol.Status]int{protocol.StatusOpen: 3, protocol.StatusProgress: 1, protocol.StatusDone: 1},
	}, logger)()

	out := buf.String()
	for _, want := range []string{"ticket digest", "total=5", "open=3", "prog=1", "done=1", "high_priority=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("digest missing %q:\n%s", want, out)
		}
	}
}
