package config

import "testing"

func TestParseLatLon(t *testing.T) {
	ll, err := ParseLatLon("39.9300,-83.0550")
	if err != nil {
		t.Fatal(err)
	}
	if ll.Lat != 39.93 || ll.Lon != -83.055 {
		t.Errorf("parsed %v, want 39.93,-83.055", ll)
	}

	if _, err := ParseLatLon("39.93"); err == nil {
		t.Error("expected error for missing longitude")
	}
	if _, err := ParseLatLon("north,west"); err == nil {
		t.Error("expected error for non-numeric coordinates")
	}

	// Whitespace around components is tolerated.
	ll, err = ParseLatLon(" 40.03 , -82.965 ")
	if err != nil {
		t.Fatal(err)
	}
	if ll.Lat != 40.03 || ll.Lon != -82.965 {
		t.Errorf("parsed %v, want 40.03,-82.965", ll)
	}
}
