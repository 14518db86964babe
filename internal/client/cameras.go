package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// Discover lists every camera the daemon can see and reports each to fn.
func (c *BridgeClient) Discover(ctx context.Context, includePersistent bool, fn func(models.CameraRecord)) error {
	var respData models.CameraListResponse

	persistent := "0"
	if includePersistent {
		persistent = "1"
	}

	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.
		SetQueryParam("persistent", persistent).
		SetResult(&respData).
		Get("/cameras")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("failed to get cameras: %s", resp.String())
	}

	for _, cam := range respData.Result.Cameras {
		fn(cam)
	}
	return nil
}

// CameraDetails fetches a single camera including its persistent values.
// An unknown camera is reported as gige.StatusNoDevice, not as an error.
func (c *BridgeClient) CameraDetails(ctx context.Context, identifier string) (models.CameraRecord, gige.Status, error) {
	var respData models.CameraDetailsResponse

	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.
		SetPathParam("id", identifier).
		SetResult(&respData).
		Get("/cameras/{id}")
	if err != nil {
		return models.CameraRecord{}, gige.StatusFailure, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.CameraRecord{}, gige.StatusNoDevice, nil
	}
	if resp.IsError() {
		return models.CameraRecord{}, gige.StatusFailure, fmt.Errorf("failed to get camera %s: %s", identifier, resp.String())
	}

	return respData.Result.Camera, gige.StatusSuccess, nil
}
