package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func newDoor() *fsm.FSM {
	return fsm.NewFSM("closed",
		fsm.Events{
			{Name: "open", Src: []string{"closed"}, Dst: "open"},
			{Name: "close", Src: []string{"open"}, Dst: "closed"},
			{Name: "knock", Src: []string{"closed"}, Dst: "closed"},
		},
		fsm.Callbacks{},
	)
}

func TestFire(t *testing.T) {
	ctx := context.Background()
	f := newDoor()

	changed, err := Fire(ctx, f, "open")
	if err != nil || !changed || f.Current() != "open" {
		t.Fatalf("open: changed=%v err=%v state=%s", changed, err, f.Current())
	}

	// Not accepted in "open".
	changed, err = Fire(ctx, f, "open")
	if err != nil || changed {
		t.Errorf("repeated open: changed=%v err=%v", changed, err)
	}

	if _, err := Fire(ctx, f, "close"); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Self loop.
	changed, err = Fire(ctx, f, "knock")
	if err != nil || changed {
		t.Errorf("knock: changed=%v err=%v", changed, err)
	}

	var unknown fsm.UnknownEventError
	if _, err := Fire(ctx, f, "paint"); !errors.As(err, &unknown) {
		t.Errorf("unknown event: got %v", err)
	}
}

func TestWrapEvent(t *testing.T) {
	boom := errors.New("boom")
	f := fsm.NewFSM("a",
		fsm.Events{{Name: "go", Src: []string{"a"}, Dst: "b"}},
		fsm.Callbacks{
			"before_go": WrapEvent(func(ctx context.Context, e *fsm.Event) error {
				e.Cancel()
				return boom
			}),
		},
	)

	if err := f.Event(context.Background(), "go"); err == nil {
		t.Fatal("expected canceled transition")
	}
	if f.Current() != "a" {
		t.Errorf("state = %s, want a", f.Current())
	}
}
