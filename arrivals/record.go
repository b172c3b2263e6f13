package arrivals

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/you/subwayviz/models"
)

// decodeRecord maps one realtimeArrivalList entry. Fields of an unexpected
// JSON type are read leniently (numbers and booleans as their literal text,
// anything else as empty) so one odd entry never fails the batch. ok is
// false when the entry was not an object or a field had to be dropped.
func decodeRecord(raw json.RawMessage) (models.ArrivalRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.ArrivalRecord{}, false
	}

	ok := true
	field := func(key string) string {
		v, valid := fieldString(fields[key])
		ok = ok && valid
		return v
	}

	return models.ArrivalRecord{
		LineName:         field("trainLineNm"),
		ArrivalMessage:   field("arvlMsg2"),
		SubwayID:         field("subwayId"),
		Direction:        field("updnLine"),
		StationName:      field("statnNm"),
		Destination:      field("bstatnNm"),
		ArrivalLocation:  field("arvlMsg3"),
		ArrivalCode:      field("arvlCd"),
		ArrivalSeconds:   field("barvlDt"),
		ReceivedAtString: field("recptnDt"),
	}, ok
}

// fieldString reads a scalar as text. Absent and null fields are empty and
// valid; objects and arrays are empty and invalid.
func fieldString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	var v interface{}
	if err := d.Decode(&v); err != nil {
		return "", false
	}

	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
