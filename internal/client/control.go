package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// ControlChannel reads the control channel registers of a camera.
func (c *BridgeClient) ControlChannel(ctx context.Context, identifier string) (models.ControlRecord, gige.Status, error) {
	var respData models.ControlResponse

	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.
		SetPathParam("id", identifier).
		SetResult(&respData).
		Get("/cameras/{id}/control")
	if err != nil {
		return models.ControlRecord{}, gige.StatusFailure, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.ControlRecord{}, gige.StatusNoDevice, nil
	}
	if resp.IsError() {
		return models.ControlRecord{}, gige.StatusFailure, fmt.Errorf("failed to read control channel of %s: %s", identifier, resp.String())
	}

	return respData.Result.Control, gige.Status(respData.Result.Status), nil
}
