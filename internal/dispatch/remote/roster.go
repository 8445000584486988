package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// RosterPath is the snapshot endpoint of a room.
func RosterPath(room string) string {
	return "/dispatch/" + url.PathEscape(room) + "/"
}

// ConnectPath is the live stream endpoint of a room.
func ConnectPath(room string) string {
	return "/dispatch/" + url.PathEscape(room) + "/connect"
}

func vehiclePath(room, id string) string {
	return "/dispatch/" + url.PathEscape(room) + "/vehicle/" + url.PathEscape(id) + "/"
}

func importPath(room string) string {
	return "/dispatch/" + url.PathEscape(room) + "/vehicles"
}

// FetchRoster returns the raw snapshot body of room. A 204 answer yields an empty body.
func (c *Client) FetchRoster(ctx context.Context, room string) ([]byte, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, RosterPath(room), nil)
	if err != nil {
		return nil, err
	}
	code, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if code == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}

// PatchVehicle sends the present fields of patch. An empty patch sends nothing.
func (c *Client) PatchVehicle(ctx context.Context, room, id string, patch model.VehiclePatch) error {
	if patch.Empty() {
		return nil
	}
	req, err := c.NewRequest(ctx, http.MethodPatch, vehiclePath(room, id), patch.MarshalFields())
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}

// DeleteVehicle removes a vehicle. A missing vehicle is reported as a 404 StatusError.
func (c *Client) DeleteVehicle(ctx context.Context, room, id string) error {
	req, err := c.NewRequest(ctx, http.MethodDelete, vehiclePath(room, id), nil)
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}

// ImportVehicles creates vehicles from seeds.
func (c *Client) ImportVehicles(ctx context.Context, room string, seeds []model.Seed) error {
	if len(seeds) == 0 {
		return nil
	}
	req, err := c.NewRequest(ctx, http.MethodPost, importPath(room), seeds)
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}
