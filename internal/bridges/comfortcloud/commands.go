package comfortcloud

import (
	"fmt"
	"math"
)

// Set-point limits accepted by the units.
const (
	minTemperature = 8.0
	maxTemperature = 30.0
)

// commandParameters translates a command into a control parameter block.
// Errors wrap ErrInvalidCommand or ErrInvalidParameter.
func commandParameters(cmd CommandMessage) (Parameters, error) {
	var p Parameters

	switch cmd.Command {
	case CommandOn:
		p.Operate = ptr(PowerOn)
	case CommandOff:
		p.Operate = ptr(PowerOff)

	case CommandSetMode:
		name, err := stringParam(cmd.Parameters, "mode")
		if err != nil {
			return p, err
		}
		mode, err := ParseMode(name)
		if err != nil {
			return p, err
		}
		p.OperationMode = &mode

	case CommandSetTemperature:
		t, err := floatParam(cmd.Parameters, "temperature")
		if err != nil {
			return p, err
		}
		if t < minTemperature || t > maxTemperature {
			return p, fmt.Errorf("%w: temperature %.1f outside %.0f-%.0f", ErrInvalidParameter, t, minTemperature, maxTemperature)
		}
		// Units accept half-degree steps.
		t = math.Round(t*2) / 2
		p.TemperatureSet = &t

	case CommandSetFanSpeed:
		name, err := stringParam(cmd.Parameters, "fan_speed")
		if err != nil {
			return p, err
		}
		fan, err := ParseFanSpeed(name)
		if err != nil {
			return p, err
		}
		p.FanSpeed = &fan

	case CommandSetEco:
		name, err := stringParam(cmd.Parameters, "eco")
		if err != nil {
			return p, err
		}
		eco, err := ParseEcoMode(name)
		if err != nil {
			return p, err
		}
		p.EcoMode = &eco

	case CommandSetSwing:
		if err := swingParameters(cmd.Parameters, &p); err != nil {
			return p, err
		}

	default:
		return p, fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Command)
	}

	return p, nil
}

func swingParameters(params map[string]any, p *Parameters) error {
	if name, ok := params["vertical"].(string); ok {
		ud, err := ParseAirSwingUD(name)
		if err != nil {
			return err
		}
		p.AirSwingUD = &ud
	}
	if name, ok := params["horizontal"].(string); ok {
		lr, err := ParseAirSwingLR(name)
		if err != nil {
			return err
		}
		p.AirSwingLR = &lr
	}
	if p.AirSwingUD == nil && p.AirSwingLR == nil {
		return fmt.Errorf("%w: set_swing needs vertical or horizontal", ErrInvalidParameter)
	}
	return nil
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameter, key)
	}
	return v, nil
}

func floatParam(params map[string]any, key string) (float64, error) {
	switch v := params[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameter, key)
	}
}

func ptr[T any](v T) *T { return &v }
