package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

var errStreamEnded = errors.New("firmware stream ended without result")

// UploadFirmware asks the daemon to flash the file at path and relays the
// NDJSON progress stream to progress. The path is resolved on the daemon's host.
func (c *BridgeClient) UploadFirmware(ctx context.Context, identifier, path string, progress chan<- gige.Progress) (gige.UploadCode, error) {
	// No call timeout here: a flash can take many minutes and ctx bounds it.
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", identifier).
		SetBody(models.FirmwareUploadRequest{Path: path}).
		SetDoNotParseResponse(true).
		Post("/cameras/{id}/firmware")
	if err != nil {
		return 0, err
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return 0, fmt.Errorf("failed to upload firmware to %s: %s", identifier, resp.Status())
	}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev models.FirmwareUploadEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return 0, fmt.Errorf("bad firmware stream line %q: %w", line, err)
		}
		if ev.Done {
			return gige.UploadCode(ev.Status), nil
		}

		select {
		case progress <- gige.Progress{Message: ev.Message, Percent: ev.Progress}:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}

	return 0, errStreamEnded
}
