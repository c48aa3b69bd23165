package kb

import (
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/conjunction-screener/model"
)

func TestAddAndGetObject(t *testing.T) {
	catalog := NewCatalog()
	obj := &model.ObjectDefinition{ID: "iss", Name: "ISS (ZARYA)", Type: model.ObjectSatellite}
	if err := catalog.AddObject(obj); err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	got := catalog.GetObject("iss")
	if got == nil || got.Name != "ISS (ZARYA)" {
		t.Fatalf("GetObject returned %#v, want name ISS (ZARYA)", got)
	}
	if catalog.GetObject("absent") != nil {
		t.Fatalf("GetObject for unknown id returned an object")
	}
	if catalog.Count() != 1 {
		t.Fatalf("Count = %d, want 1", catalog.Count())
	}
}

func TestAddObjectDuplicate(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.AddObject(&model.ObjectDefinition{ID: "iss"}); err != nil {
		t.Fatalf("first AddObject error: %v", err)
	}
	if err := catalog.AddObject(&model.ObjectDefinition{ID: "iss"}); err == nil {
		t.Fatalf("expected duplicate AddObject to fail")
	}
}

func TestListObjectsSortedByID(t *testing.T) {
	catalog := NewCatalog()
	for _, id := range []string{"c", "a", "b"} {
		if err := catalog.AddObject(&model.ObjectDefinition{ID: id}); err != nil {
			t.Fatalf("AddObject %s: %v", id, err)
		}
	}
	objects := catalog.ListObjects()
	if len(objects) != 3 {
		t.Fatalf("ListObjects returned %d objects, want 3", len(objects))
	}
	for i, want := range []string{"a", "b", "c"} {
		if objects[i].ID != want {
			t.Fatalf("objects[%d] = %q, want %q", i, objects[i].ID, want)
		}
	}
}

func TestSubscribeReceivesObjectAdded(t *testing.T) {
	catalog := NewCatalog()
	var events []Event
	catalog.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := catalog.AddObject(&model.ObjectDefinition{ID: "iss"}); err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventObjectAdded || events[0].ObjectID != "iss" {
		t.Fatalf("event = %+v, want EventObjectAdded for iss", events[0])
	}
}

func TestNotifyConjunction(t *testing.T) {
	catalog := NewCatalog()
	var events []Event
	catalog.Subscribe(func(ev Event) { events = append(events, ev) })

	catalog.NotifyConjunction(model.ConjunctionEvent{
		ObjectA:         "iss",
		ObjectB:         "frag",
		MinSeparationKm: 3.2,
		Risk:            model.RiskHigh,
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != EventConjunctionFlagged || ev.ObjectID != "iss" {
		t.Fatalf("event = %+v, want EventConjunctionFlagged for iss", ev)
	}
	if ev.Conjunction == nil || ev.Conjunction.ObjectB != "frag" || ev.Conjunction.Risk != model.RiskHigh {
		t.Fatalf("conjunction payload = %+v", ev.Conjunction)
	}
}

func TestConcurrentAddAndList(t *testing.T) {
	catalog := NewCatalog()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = catalog.AddObject(&model.ObjectDefinition{ID: fmt.Sprintf("obj-%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = catalog.ListObjects()
		}()
	}
	wg.Wait()
	if catalog.Count() != 20 {
		t.Fatalf("Count = %d, want 20", catalog.Count())
	}
}
