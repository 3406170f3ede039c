package transit

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString decodes a JSON string or number into its string form.
// Passio mixes both for ids.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexFloat decodes a JSON number or numeric string. Empty strings are zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type passioSystem struct {
	ID       flexString `json:"id"`
	FullName string     `json:"fullname"`
	Name     string     `json:"name"`
}

type passioSystemsResponse struct {
	All []passioSystem `json:"all"`
}

type passioStop struct {
	ID        flexString `json:"id"`
	Name      string     `json:"name"`
	Latitude  flexFloat  `json:"latitude"`
	Longitude flexFloat  `json:"longitude"`
}

type passioStopsResponse struct {
	Stops map[string]passioStop `json:"stops"`
}

type passioBus struct {
	BusID     flexString `json:"busId"`
	BusName   string     `json:"busName"`
	Route     string     `json:"route"`
	RouteID   flexString `json:"routeId"`
	Latitude  flexFloat  `json:"latitude"`
	Longitude flexFloat  `json:"longitude"`
}

type passioBusesResponse struct {
	Buses map[string][]passioBus `json:"buses"`
}

type passioRoute struct {
	MyID      flexString `json:"myid"`
	ID        flexString `json:"id"`
	Name      string     `json:"name"`
	ShortName string     `json:"shortName"`
	Color     string     `json:"color"`
}

type passioAlert struct {
	ID      flexString `json:"id"`
	RouteID flexString `json:"routeId"`
	Name    string     `json:"name"`
	HTML    string     `json:"html"`
	From    string     `json:"from"`
	To      string     `json:"to"`
}

type passioAlertsResponse struct {
	Msgs []passioAlert `json:"msgs"`
}
