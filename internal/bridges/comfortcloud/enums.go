package comfortcloud

import "fmt"

// Power is the unit's on/off state ("operate").
type Power int

const (
	PowerOff Power = 0
	PowerOn  Power = 1
)

// Mode is the operation mode ("operationMode").
type Mode int

const (
	ModeAuto Mode = 0
	ModeDry  Mode = 1
	ModeCool Mode = 2
	ModeHeat Mode = 3
	ModeFan  Mode = 4
)

// FanSpeed is the indoor fan speed ("fanSpeed").
type FanSpeed int

const (
	FanAuto    FanSpeed = 0
	FanLow     FanSpeed = 1
	FanLowMid  FanSpeed = 2
	FanMid     FanSpeed = 3
	FanHighMid FanSpeed = 4
	FanHigh    FanSpeed = 5
)

// EcoMode is the eco setting ("ecoMode").
type EcoMode int

const (
	EcoAuto     EcoMode = 0
	EcoPowerful EcoMode = 1
	EcoQuiet    EcoMode = 2
)

// AirSwingUD is the vertical vane position ("airSwingUD").
type AirSwingUD int

const (
	SwingUDAuto    AirSwingUD = -1
	SwingUDUp      AirSwingUD = 0
	SwingUDDown    AirSwingUD = 1
	SwingUDMid     AirSwingUD = 2
	SwingUDUpMid   AirSwingUD = 3
	SwingUDDownMid AirSwingUD = 4
)

// AirSwingLR is the horizontal vane position ("airSwingLR").
type AirSwingLR int

const (
	SwingLRAuto     AirSwingLR = -1
	SwingLRLeft     AirSwingLR = 0
	SwingLRRight    AirSwingLR = 1
	SwingLRMid      AirSwingLR = 2
	SwingLRRightMid AirSwingLR = 3
	SwingLRLeftMid  AirSwingLR = 4
)

// temperatureUnavailable is reported for sensors the unit does not have.
const temperatureUnavailable = 126

var (
	powerNames = map[Power]string{PowerOff: "off", PowerOn: "on"}
	modeNames  = map[Mode]string{
		ModeAuto: "auto", ModeDry: "dry", ModeCool: "cool", ModeHeat: "heat", ModeFan: "fan",
	}
	fanNames = map[FanSpeed]string{
		FanAuto: "auto", FanLow: "low", FanLowMid: "low_mid", FanMid: "mid", FanHighMid: "high_mid", FanHigh: "high",
	}
	ecoNames     = map[EcoMode]string{EcoAuto: "auto", EcoPowerful: "powerful", EcoQuiet: "quiet"}
	swingUDNames = map[AirSwingUD]string{
		SwingUDAuto: "auto", SwingUDUp: "up", SwingUDDown: "down", SwingUDMid: "mid",
		SwingUDUpMid: "up_mid", SwingUDDownMid: "down_mid",
	}
	swingLRNames = map[AirSwingLR]string{
		SwingLRAuto: "auto", SwingLRLeft: "left", SwingLRRight: "right", SwingLRMid: "mid",
		SwingLRRightMid: "right_mid", SwingLRLeftMid: "left_mid",
	}
)

func (p Power) String() string      { return nameOf(powerNames, p) }
func (m Mode) String() string       { return nameOf(modeNames, m) }
func (f FanSpeed) String() string   { return nameOf(fanNames, f) }
func (e EcoMode) String() string    { return nameOf(ecoNames, e) }
func (s AirSwingUD) String() string { return nameOf(swingUDNames, s) }
func (s AirSwingLR) String() string { return nameOf(swingLRNames, s) }

// ParseMode returns the Mode named name.
func ParseMode(name string) (Mode, error) { return parseName(modeNames, name) }

// ParseFanSpeed returns the FanSpeed named name.
func ParseFanSpeed(name string) (FanSpeed, error) { return parseName(fanNames, name) }

// ParseEcoMode returns the EcoMode named name.
func ParseEcoMode(name string) (EcoMode, error) { return parseName(ecoNames, name) }

// ParseAirSwingUD returns the AirSwingUD named name.
func ParseAirSwingUD(name string) (AirSwingUD, error) { return parseName(swingUDNames, name) }

// ParseAirSwingLR returns the AirSwingLR named name.
func ParseAirSwingLR(name string) (AirSwingLR, error) { return parseName(swingLRNames, name) }

func nameOf[T ~int](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

func parseName[T ~int](names map[T]string, name string) (T, error) {
	for v, n := range names {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown value %q", ErrInvalidParameter, name)
}
