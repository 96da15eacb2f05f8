package comfortcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request names used for tracing and error reporting.
const (
	requestDevices = "get_devices"
	requestStatus  = "get_status"
	requestControl = "control"
)

// Executor performs authenticated Comfort Cloud requests.
// *cloudauth.Session satisfies it.
type Executor interface {
	ExecuteGet(ctx context.Context, url, name string, expectedStatus int) (json.RawMessage, error)
	ExecutePost(ctx context.Context, url string, body any, name string, expectedStatus int) (json.RawMessage, error)
}

// API is a thin client for the Comfort Cloud device endpoints.
type API struct {
	exec    Executor
	baseURL string
}

// NewAPI creates an API rooted at baseURL (the "acc" service URL).
func NewAPI(exec Executor, baseURL string) *API {
	return &API{exec: exec, baseURL: strings.TrimRight(baseURL, "/")}
}

// Device is one air-conditioning unit registered to the account.
type Device struct {
	GUID  string `json:"deviceGuid"`
	Name  string `json:"deviceName"`
	Model string `json:"deviceModuleNumber"`
	Type  string `json:"deviceType"`
	Group string `json:"-"`
}

type groupResponse struct {
	GroupList []struct {
		GroupName  string   `json:"groupName"`
		DeviceList []Device `json:"deviceList"`
	} `json:"groupList"`
}

// Devices lists every unit of every group.
func (a *API) Devices(ctx context.Context) ([]Device, error) {
	raw, err := a.exec.ExecuteGet(ctx, a.baseURL+"/device/group", requestDevices, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var resp groupResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: device groups: %w", ErrDecodeFailed, err)
	}

	var devices []Device
	for _, g := range resp.GroupList {
		for _, d := range g.DeviceList {
			if d.GUID == "" {
				continue
			}
			d.Group = g.GroupName
			devices = append(devices, d)
		}
	}
	return devices, nil
}

// Parameters is the parameter block of a status or control message.
// Nil fields are absent; a control request changes only the fields it sets.
type Parameters struct {
	Operate            *Power      `json:"operate,omitempty"`
	OperationMode      *Mode       `json:"operationMode,omitempty"`
	TemperatureSet     *float64    `json:"temperatureSet,omitempty"`
	FanSpeed           *FanSpeed   `json:"fanSpeed,omitempty"`
	EcoMode            *EcoMode    `json:"ecoMode,omitempty"`
	AirSwingUD         *AirSwingUD `json:"airSwingUD,omitempty"`
	AirSwingLR         *AirSwingLR `json:"airSwingLR,omitempty"`
	InsideTemperature  *float64    `json:"insideTemperature,omitempty"`
	OutsideTemperature *float64    `json:"outsideTemperature,omitempty"`
}

type statusResponse struct {
	Parameters Parameters `json:"parameters"`
}

// Status returns the current parameters of one unit.
func (a *API) Status(ctx context.Context, guid string) (Parameters, error) {
	raw, err := a.exec.ExecuteGet(ctx, a.baseURL+"/deviceStatus/now/"+url.PathEscape(guid), requestStatus, http.StatusOK)
	if err != nil {
		return Parameters{}, err
	}

	var resp statusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Parameters{}, fmt.Errorf("%w: status of %s: %w", ErrDecodeFailed, guid, err)
	}
	return resp.Parameters, nil
}

type controlRequest struct {
	DeviceGUID string     `json:"deviceGuid"`
	Parameters Parameters `json:"parameters"`
}

type controlResponse struct {
	Result *int `json:"result"`
}

// Control applies params to one unit. The cloud must answer result 0.
func (a *API) Control(ctx context.Context, guid string, params Parameters) error {
	raw, err := a.exec.ExecutePost(ctx, a.baseURL+"/deviceStatus/control",
		controlRequest{DeviceGUID: guid, Parameters: params}, requestControl, http.StatusOK)
	if err != nil {
		return err
	}

	var resp controlResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%w: control response: %w", ErrDecodeFailed, err)
	}
	if resp.Result == nil || *resp.Result != 0 {
		return fmt.Errorf("%w: %s", ErrControlRejected, string(raw))
	}
	return nil
}
