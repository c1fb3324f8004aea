package viewcache

import (
	"context"
	"testing"
	"time"

	c "github.com/unkn0wn-root/viewcache/codec"
	"github.com/unkn0wn-root/viewcache/internal/wire"
	"github.com/unkn0wn-root/viewcache/provider/memory"
)

type toolConfig struct {
	ToolIDs []string `json:"toolIds"`
}

func newTestSnapshot(t *testing.T, mp *memory.Provider) *Snapshot[toolConfig] {
	t.Helper()
	s, err := NewSnapshot[toolConfig](SnapshotOptions[toolConfig]{
		Namespace: "tools",
		Provider:  mp,
		Codec:     c.JSON[toolConfig]{},
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	mp := memory.New()
	s := newTestSnapshot(t, mp)

	want := toolConfig{ToolIDs: []string{"qr", "utm"}}
	if err := s.Write(ctx, "ws-1", want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, at, ok, err := s.ReadLastKnown(ctx, "ws-1")
	if err != nil || !ok {
		t.Fatalf("ReadLastKnown: ok=%v err=%v", ok, err)
	}
	if len(got.ToolIDs) != 2 || got.ToolIDs[0] != "qr" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if at.IsZero() || time.Since(at) > time.Minute {
		t.Fatalf("implausible write time %v", at)
	}
}

func TestSnapshotAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot(t, memory.New())
	if _, _, ok, err := s.ReadLastKnown(ctx, "nope"); ok || err != nil {
		t.Fatalf("expected absent: ok=%v err=%v", ok, err)
	}
}

func TestSnapshotSelfHealOnCorrupt(t *testing.T) {
	ctx := context.Background()
	mp := memory.New()
	hooks := &countingHooks{NopHooks: NopHooks{}}
	s, err := NewSnapshot[toolConfig](SnapshotOptions[toolConfig]{
		Namespace: "tools",
		Provider:  mp,
		Codec:     c.JSON[toolConfig]{},
		Hooks:     hooks,
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	// foreign bytes under our keyspace
	if _, err := mp.Set(ctx, "snap:tools:ws-1", []byte("garbage"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, _, ok, err := s.ReadLastKnown(ctx, "ws-1"); ok || err != nil {
		t.Fatalf("corrupt entry should read as absent: ok=%v err=%v", ok, err)
	}
	// entry was deleted, not left to fail again
	if _, found, _ := mp.Get(ctx, "snap:tools:ws-1"); found {
		t.Fatal("corrupt entry should have been deleted")
	}
}

func TestSnapshotSelfHealOnUndecodablePayload(t *testing.T) {
	ctx := context.Background()
	mp := memory.New()
	s := newTestSnapshot(t, mp)

	// valid framing, invalid JSON inside
	framed := wire.EncodeSnapshot(time.Now().UnixNano(), []byte("{not json"))
	if _, err := mp.Set(ctx, "snap:tools:ws-1", framed, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, _, ok, err := s.ReadLastKnown(ctx, "ws-1"); ok || err != nil {
		t.Fatalf("undecodable entry should read as absent: ok=%v err=%v", ok, err)
	}
	if _, found, _ := mp.Get(ctx, "snap:tools:ws-1"); found {
		t.Fatal("undecodable entry should have been deleted")
	}
}

func TestSnapshotForget(t *testing.T) {
	ctx := context.Background()
	s := newTestSnapshot(t, memory.New())

	if err := s.Write(ctx, "ws-1", toolConfig{ToolIDs: []string{"qr"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Forget(ctx, "ws-1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, _, ok, _ := s.ReadLastKnown(ctx, "ws-1"); ok {
		t.Fatal("entry should be gone after Forget")
	}
}

func TestSnapshotRequiredOptions(t *testing.T) {
	if _, err := NewSnapshot[toolConfig](SnapshotOptions[toolConfig]{}); err == nil {
		t.Fatal("expected error for missing provider")
	}
	if _, err := NewSnapshot[toolConfig](SnapshotOptions[toolConfig]{Provider: memory.New()}); err == nil {
		t.Fatal("expected error for missing codec")
	}
	if _, err := NewSnapshot[toolConfig](SnapshotOptions[toolConfig]{
		Provider: memory.New(),
		Codec:    c.JSON[toolConfig]{},
	}); err == nil {
		t.Fatal("expected error for missing namespace")
	}
}
