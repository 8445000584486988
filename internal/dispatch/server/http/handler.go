package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/dispatch/internal/dispatch/category"
	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/service"
	"github.com/autopeer-io/dispatch/internal/dispatch/envelope"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// maxBodySize bounds request bodies, bulk imports included.
const maxBodySize = 4 << 20

type handler struct {
	session Session
	archive ArchiveLocator
}

// RosterResponse is the body of GET /api/v1/roster.
type RosterResponse struct {
	Room     string                    `json:"room"`
	Vehicles []model.Vehicle           `json:"vehicles"`
	Owners   map[string]*model.Profile `json:"owners"`
}

// GroupsResponse is the body of GET /api/v1/roster/groups.
type GroupsResponse struct {
	Room   string           `json:"room"`
	Groups []category.Group `json:"groups"`
}

// RoomRequest selects a room directly or through its group.
type RoomRequest struct {
	Room    string `json:"room"`
	GroupID string `json:"groupId"`
}

// PatchRequest is the body of PATCH /api/v1/vehicles/{id}. A null route clears it.
type PatchRequest struct {
	Route    json.RawMessage `json:"route"`
	Assigned *bool           `json:"assigned"`
	Towing   *bool           `json:"towing"`
}

// MessageResponse carries a user-facing message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Status())
}

func (h *handler) room(w http.ResponseWriter, r *http.Request) {
	info, err := h.session.RoomInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handler) selectRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, group := strings.TrimSpace(req.Room), strings.TrimSpace(req.GroupID)
	switch {
	case room != "" && group != "":
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room and groupId are mutually exclusive"})
		return
	case group != "":
		if _, err := h.session.SelectGroup(r.Context(), group); err != nil {
			writeError(w, err)
			return
		}
	default:
		h.session.SelectRoom(r.Context(), room)
	}
	writeJSON(w, http.StatusOK, h.session.Status())
}

func (h *handler) leaveRoom(w http.ResponseWriter, r *http.Request) {
	h.session.SelectRoom(r.Context(), "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) roster(w http.ResponseWriter, r *http.Request) {
	vehicles := h.session.Search(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, RosterResponse{
		Room:     h.session.Room(),
		Vehicles: vehicles,
		Owners:   h.session.Owners(r.Context(), vehicles),
	})
}

func (h *handler) groups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GroupsResponse{
		Room:   h.session.Room(),
		Groups: h.session.Groups(r.Context(), r.URL.Query().Get("q")),
	})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) patchVehicle(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.session.Patch(r.Context(), vehicleID(r), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Delete(r.Context(), vehicleID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) importVehicles(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return
	}
	msg, err := h.session.Import(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *handler) latestArchive(w http.ResponseWriter, r *http.Request) {
	room := h.session.Room()
	if room == "" {
		writeError(w, service.ErrNoRoom)
		return
	}
	link, err := h.archive.LatestURL(r.Context(), room)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, link, http.StatusTemporaryRedirect)
}

func vehicleID(r *http.Request) string {
	id := mux.Vars(r)["id"]
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

func (p PatchRequest) patch() (model.VehiclePatch, error) {
	out := model.VehiclePatch{Assigned: p.Assigned, Towing: p.Towing}
	if len(p.Route) > 0 {
		out.HasRoute = true
		if string(p.Route) != "null" {
			var route string
			if err := json.Unmarshal(p.Route, &route); err != nil {
				return out, errors.New("route must be a string or null")
			}
			out.Route = envelope.CoerceRoute(route)
		}
	}
	if out.Empty() {
		return out, errors.New("patch must set route, assigned or towing")
	}
	return out, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

// statusFor maps session errors to response codes.
func statusFor(err error) int {
	var validation *command.ValidationError
	switch {
	case errors.Is(err, service.ErrNoRoom), errors.Is(err, service.ErrRoomChanged):
		return http.StatusConflict
	case errors.Is(err, command.ErrVehicleNotFound), errors.Is(err, service.ErrNoActiveRoom):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRoomsUnavailable):
		return http.StatusNotImplemented
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		// Remote failures, mutation errors included.
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Warn("Request failed", "code", code, "error", err)
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}
