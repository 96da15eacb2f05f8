package comfortcloud

import (
	"errors"
	"testing"
)

func TestEnumNamesRoundTrip(t *testing.T) {
	for m, name := range modeNames {
		got, err := ParseMode(name)
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", name, got, err, m)
		}
	}
	for f, name := range fanNames {
		if got, err := ParseFanSpeed(name); err != nil || got != f {
			t.Errorf("ParseFanSpeed(%q) = %v, %v", name, got, err)
		}
	}
	for e, name := range ecoNames {
		if got, err := ParseEcoMode(name); err != nil || got != e {
			t.Errorf("ParseEcoMode(%q) = %v, %v", name, got, err)
		}
	}
	for s, name := range swingUDNames {
		if got, err := ParseAirSwingUD(name); err != nil || got != s {
			t.Errorf("ParseAirSwingUD(%q) = %v, %v", name, got, err)
		}
	}
	for s, name := range swingLRNames {
		if got, err := ParseAirSwingLR(name); err != nil || got != s {
			t.Errorf("ParseAirSwingLR(%q) = %v, %v", name, got, err)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{PowerOn.String(), "on"},
		{ModeHeat.String(), "heat"},
		{FanLowMid.String(), "low_mid"},
		{EcoPowerful.String(), "powerful"},
		{SwingUDAuto.String(), "auto"},
		{SwingLRRightMid.String(), "right_mid"},
		{Mode(9).String(), "unknown(9)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := ParseFanSpeed("ludicrous"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParseFanSpeed() error = %v, want ErrInvalidParameter", err)
	}
}

func TestStateFromParameters(t *testing.T) {
	unavailable := float64(temperatureUnavailable)
	s := stateFromParameters(Parameters{
		Operate:            ptr(PowerOff),
		OperationMode:      ptr(ModeCool),
		TemperatureSet:     ptr(24.0),
		FanSpeed:           ptr(FanHigh),
		EcoMode:            ptr(EcoAuto),
		AirSwingUD:         ptr(SwingUDMid),
		AirSwingLR:         ptr(SwingLRLeft),
		InsideTemperature:  ptr(22.0),
		OutsideTemperature: &unavailable,
	})

	if s.Power != "off" || s.Mode != "cool" || s.FanSpeed != "high" || s.SwingVertical != "mid" || s.SwingHorizontal != "left" {
		t.Errorf("state = %+v", s)
	}
	if s.InsideTemperature == nil || *s.InsideTemperature != 22 {
		t.Errorf("InsideTemperature = %v", s.InsideTemperature)
	}
	if s.OutsideTemperature != nil {
		t.Errorf("OutsideTemperature = %v, want nil for 126", *s.OutsideTemperature)
	}
}

func TestUnitStateEqual(t *testing.T) {
	a := UnitState{Power: "on", Mode: "heat", InsideTemperature: ptr(20.0)}
	b := UnitState{Power: "on", Mode: "heat", InsideTemperature: ptr(20.0)}
	if !a.Equal(b) {
		t.Error("equal states with distinct pointers should compare equal")
	}
	b.InsideTemperature = ptr(20.5)
	if a.Equal(b) {
		t.Error("different inside temperature should not be equal")
	}
	b.InsideTemperature = nil
	if a.Equal(b) {
		t.Error("nil vs set temperature should not be equal")
	}
}
