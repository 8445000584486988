package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

const maxColWidth = 40

func writeVehicles(w io.Writer, vehicles []model.Vehicle, owners map[string]*model.Profile) {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.AddRow("ID", "NAME", "DEPOT", "ROUTE", "OWNER", "ASSIGNED", "TOWING")
	for _, v := range vehicles {
		table.AddRow(v.ID, v.Name, v.Depot, orDash(v.RouteValue()), ownerName(v.OwnerID, owners), yesNo(v.Assigned), yesNo(v.Towing))
	}
	fmt.Fprintln(w, table)
}

func writeRoom(w io.Writer, room *model.Room) {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.AddRow("ROOM:", room.RoomID)
	table.AddRow("GROUP:", orDash(room.GroupID))
	table.AddRow("CREATOR:", orDash(room.CreatorID))
	table.AddRow("CREATED:", orDash(room.CreatedAt))
	table.AddRow("EXPIRES:", orDash(room.ExpiresAt))
	table.AddRow("USERS:", orDash(strings.Join(room.Users, ", ")))
	table.AddRow("VEHICLES:", strconv.Itoa(room.Vehicles))
	fmt.Fprintln(w, table)
}

func ownerName(id string, owners map[string]*model.Profile) string {
	if p := owners[id]; p != nil {
		return p.DisplayName
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
