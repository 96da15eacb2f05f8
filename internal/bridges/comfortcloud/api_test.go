package comfortcloud

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestAPI_Devices(t *testing.T) {
	api := NewAPI(NewMockExecutor(), testBaseURL+"/")

	devices, err := api.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Devices() returned %d, want 2 (empty GUID skipped)", len(devices))
	}
	if devices[0].Name != "Lounge" || devices[0].Group != "Ground floor" || devices[0].Model != "CS-Z25VKEW" {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[1].Group != "First floor" {
		t.Errorf("devices[1].Group = %q", devices[1].Group)
	}
}

func TestAPI_DevicesDecodeError(t *testing.T) {
	exec := NewMockExecutor()
	exec.groups = `{"groupList": "nope"}`

	_, err := NewAPI(exec, testBaseURL).Devices(context.Background())
	if !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("Devices() error = %v, want ErrDecodeFailed", err)
	}
}

func TestAPI_Status(t *testing.T) {
	params, err := NewAPI(NewMockExecutor(), testBaseURL).Status(context.Background(), "CS-Z25VKEW+1001")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if params.Operate == nil || *params.Operate != PowerOn {
		t.Errorf("Operate = %v, want on", params.Operate)
	}
	if params.TemperatureSet == nil || *params.TemperatureSet != 21.5 {
		t.Errorf("TemperatureSet = %v, want 21.5", params.TemperatureSet)
	}
	if params.AirSwingLR == nil || *params.AirSwingLR != SwingLRAuto {
		t.Errorf("AirSwingLR = %v, want auto", params.AirSwingLR)
	}

	if _, err := NewAPI(NewMockExecutor(), testBaseURL).Status(context.Background(), "missing"); err == nil {
		t.Error("Status() for unknown GUID should fail")
	}
}

func TestAPI_Control(t *testing.T) {
	tests := []struct {
		name    string
		result  string
		wantErr error
	}{
		{name: "accepted", result: `{"result":0}`},
		{name: "rejected", result: `{"result":4106}`, wantErr: ErrControlRejected},
		{name: "no result", result: `{}`, wantErr: ErrControlRejected},
		{name: "not an object", result: `[1]`, wantErr: ErrDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewMockExecutor()
			exec.controlResult = tt.result

			err := NewAPI(exec, testBaseURL).Control(context.Background(), "CS-Z25VKEW+1001", Parameters{Operate: ptr(PowerOff)})
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Control() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Control() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParameters_OnlySetFieldsAreSent(t *testing.T) {
	body, err := json.Marshal(controlRequest{
		DeviceGUID: "g",
		Parameters: Parameters{Operate: ptr(PowerOff), TemperatureSet: ptr(20.5)},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(body)

	for _, want := range []string{`"deviceGuid":"g"`, `"operate":0`, `"temperatureSet":20.5`} {
		if !strings.Contains(got, want) {
			t.Errorf("body %s missing %s", got, want)
		}
	}
	for _, absent := range []string{"operationMode", "fanSpeed", "insideTemperature"} {
		if strings.Contains(got, absent) {
			t.Errorf("body %s should not contain %s", got, absent)
		}
	}
}
