package stt

import "testing"

func TestDeviceControlMap_SetGetRemove(t *testing.T) {
	m := NewDeviceControlMap()
	device := Device{ID: "mic"}

	if _, ok := m.Get(device); ok {
		t.Fatalf("expected no control before Set")
	}

	m.Set(device, NewDeviceControl(true))
	control, ok := m.Get(device)
	if !ok {
		t.Fatalf("expected a control after Set")
	}
	if !control.IsRunning() {
		t.Errorf("expected control to be running")
	}

	control.SetRunning(false)
	again, _ := m.Get(device)
	if again.IsRunning() {
		t.Errorf("expected control to reflect SetRunning(false)")
	}

	m.Remove(device)
	if _, ok := m.Get(device); ok {
		t.Errorf("expected no control after Remove")
	}
}

func TestDevice_String(t *testing.T) {
	named := Device{ID: "id-1", Name: "USB Mic"}
	if named.String() != "USB Mic" {
		t.Errorf("String() = %q, want %q", named.String(), "USB Mic")
	}

	unnamed := Device{ID: "id-2"}
	if unnamed.String() != "id-2" {
		t.Errorf("String() = %q, want %q", unnamed.String(), "id-2")
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Reason: "bad config"}
	if err.Error() != "configuration error: bad config" {
		t.Errorf("Error() = %q", err.Error())
	}
}
