package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeField is the key under which the extraction timestamp is stored.
const TimeField = "Time"

// TimeLayout is the local, second-precision layout of the Time field.
const TimeLayout = "2006-01-02 15:04:05"

// Sensor field names expected in every reading. Presence is not enforced.
const (
	FieldCO2         = "co2"
	FieldHumidity    = "humidity"
	FieldPM1_0       = "pm1_0"
	FieldPM2_5       = "pm2_5"
	FieldPM10_0      = "pm10_0"
	FieldTemperature = "temperature"
)

// SensorFields lists the payload fields in wire order.
var SensorFields = []string{
	FieldCO2,
	FieldHumidity,
	FieldPM1_0,
	FieldPM2_5,
	FieldPM10_0,
	FieldTemperature,
}

// Record is one reading parsed from a JSON object.
// Numeric values are kept as json.Number so their text survives re-encoding.
type Record map[string]any

// ParseRecord decodes a single JSON object into a Record.
// Anything other than exactly one object is an error.
func ParseRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return rec, nil
}

// Stamp sets the Time field to t in local time, replacing any existing value.
func (r Record) Stamp(t time.Time) {
	r[TimeField] = t.Local().Format(TimeLayout)
}

// Time returns the Time field, or "" when absent.
func (r Record) Time() string {
	s, _ := r[TimeField].(string)
	return s
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MarshalLine encodes the record as one JSON line terminated by '\n'.
func (r Record) MarshalLine() ([]byte, error) {
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Payload returns the delivery payload derived from the record.
func (r Record) Payload() Payload {
	return Payload{
		CO2:         r[FieldCO2],
		Humidity:    r[FieldHumidity],
		PM1_0:       r[FieldPM1_0],
		PM2_5:       r[FieldPM2_5],
		PM10_0:      r[FieldPM10_0],
		Temperature: r[FieldTemperature],
	}
}

// Payload is the fixed-shape body posted to the remote endpoint.
// Absent fields encode as null.
type Payload struct {
	CO2         any `json:"co2"`
	Humidity    any `json:"humidity"`
	PM1_0       any `json:"pm1_0"`
	PM2_5       any `json:"pm2_5"`
	PM10_0      any `json:"pm10_0"`
	Temperature any `json:"temperature"`
}
