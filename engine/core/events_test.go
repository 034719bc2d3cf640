package core

import "testing"

func TestEventBusFireOrderAndHandled(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	first, second := "first", "second"
	bus.Register(EVENT_CODE_RESIZED, first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return false
	})
	bus.Register(EVENT_CODE_RESIZED, second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return data.Data.U32[0] == 800
	})

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	if !bus.Fire(EVENT_CODE_RESIZED, nil, ctx) {
		t.Errorf("Fire() = false, want true when a listener handles the event")
	}
	if len(calls) != 2 || calls[0] != first || calls[1] != second {
		t.Errorf("listener calls = %v, want [first second]", calls)
	}

	if bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}) {
		t.Errorf("Fire() with no listeners = true, want false")
	}
}

func TestEventBusDuplicateAndUnregister(t *testing.T) {
	bus := NewEventBus()
	handled := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return true }

	if !bus.Register(EVENT_CODE_KEY_PRESSED, "l", handled) {
		t.Fatalf("Register() = false, want true")
	}
	if bus.Register(EVENT_CODE_KEY_PRESSED, "l", handled) {
		t.Errorf("duplicate Register() = true, want false")
	}
	if !bus.Unregister(EVENT_CODE_KEY_PRESSED, "l") {
		t.Errorf("Unregister() = false, want true")
	}
	if bus.Fire(EVENT_CODE_KEY_PRESSED, nil, EventContext{}) {
		t.Errorf("Fire() after Unregister() = true, want false")
	}
	if bus.Unregister(EVENT_CODE_KEY_PRESSED, "l") {
		t.Errorf("second Unregister() = true, want false")
	}
}
