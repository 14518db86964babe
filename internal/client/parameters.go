package client

import (
	"context"
	"fmt"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// SetPersistentParameter writes one persistent parameter to the camera.
func (c *BridgeClient) SetPersistentParameter(ctx context.Context, identifier string, p gige.Param) (gige.Status, error) {
	var respData models.StatusResponse

	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.
		SetPathParams(map[string]string{
			"id":  identifier,
			"key": p.Key,
		}).
		SetBody(models.ParameterPayload{Value: p.Value()}).
		SetResult(&respData).
		Put("/cameras/{id}/parameters/{key}")
	if err != nil {
		return gige.StatusFailure, err
	}
	if resp.IsError() {
		return gige.StatusFailure, fmt.Errorf("failed to set %s on %s: %s", p.Key, identifier, resp.String())
	}

	return gige.Status(respData.Result.Status), nil
}

// Rescue assigns a temporary IP configuration to the camera with the given MAC.
func (c *BridgeClient) Rescue(ctx context.Context, mac, ip, netmask, gateway string) (gige.Status, error) {
	var respData models.StatusResponse

	payload := models.RescuePayload{
		MAC:     mac,
		IP:      ip,
		Netmask: netmask,
		Gateway: gateway,
	}

	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.
		SetBody(payload).
		SetResult(&respData).
		Post("/rescue")
	if err != nil {
		return gige.StatusFailure, err
	}
	if resp.IsError() {
		return gige.StatusFailure, fmt.Errorf("failed to rescue %s: %s", mac, resp.String())
	}

	return gige.Status(respData.Result.Status), nil
}
