// Package wire implements the comma-separated event encoding that travels
// over every UDP datagram in the dispatcher: floor->scheduler hall calls,
// scheduler->car assignments, and car->scheduler->floor telemetry.
package wire

import (
	"strconv"
	"strings"

	"github.com/galemire/elevator-dispatch/internal/domain"
)

const fieldCount = 10

// Encode renders an event as the wire's comma-separated text format, with
// no trailing newline. isFromFloor/isComplete render as "1"/"0"; an empty
// FloorButton renders as an empty field (two adjacent commas).
func Encode(e domain.Event) []byte {
	fields := []string{
		e.Time,
		e.Source,
		string(e.FloorButton),
		strconv.Itoa(e.ElevatorButton),
		boolField(e.IsFromFloor),
		strconv.Itoa(e.AssignedElevator),
		strconv.Itoa(e.CurrentFloor),
		strconv.Itoa(e.Riders),
		boolField(e.IsComplete),
		strconv.Itoa(int(e.Fault)),
	}
	return []byte(strings.Join(fields, ","))
}

// Decode parses a wire datagram back into an Event. It trims null bytes
// and surrounding whitespace from every field, and recovers IsFromFloor
// from the "Elevator" source prefix when the bit itself is missing.
func Decode(b []byte) (domain.Event, error) {
	text := strings.Trim(string(b), "\x00")
	text = strings.TrimSpace(text)

	fields := strings.Split(text, ",")
	if len(fields) != fieldCount {
		return domain.Event{}, domain.NewValidationError(
			"event does not have the expected field count", nil).
			WithContext("got_fields", len(fields)).
			WithContext("want_fields", fieldCount).
			WithContext("raw", text)
	}

	for i := range fields {
		fields[i] = cleanField(fields[i])
	}

	var e domain.Event
	e.Time = fields[0]
	e.Source = fields[1]
	e.FloorButton = domain.FloorButton(fields[2])

	elevatorButton, err := parseIntField(fields[3])
	if err != nil {
		return domain.Event{}, domain.NewValidationError("malformed elevatorButton field", err)
	}
	e.ElevatorButton = elevatorButton

	e.IsFromFloor = parseBoolField(fields[4], !strings.HasPrefix(e.Source, "Elevator"))

	assigned, err := parseIntField(fields[5])
	if err != nil {
		return domain.Event{}, domain.NewValidationError("malformed assignedElevator field", err)
	}
	e.AssignedElevator = assigned

	currentFloor, err := parseIntField(fields[6])
	if err != nil {
		return domain.Event{}, domain.NewValidationError("malformed currentFloor field", err)
	}
	e.CurrentFloor = currentFloor

	riders, err := parseIntField(fields[7])
	if err != nil {
		return domain.Event{}, domain.NewValidationError("malformed riders field", err)
	}
	e.Riders = riders

	e.IsComplete = parseBoolField(fields[8], false)

	fault, err := parseIntField(fields[9])
	if err != nil {
		return domain.Event{}, domain.NewValidationError("malformed fault field", err)
	}
	e.Fault = domain.Fault(fault)

	return e, nil
}

func cleanField(f string) string {
	return strings.TrimSpace(strings.Trim(f, "\x00"))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// parseBoolField treats an empty field as "absent" and falls back to the
// caller-supplied derived value (see spec: recover isFromFloor from the
// source prefix when the bit is missing).
func parseBoolField(f string, fallback bool) bool {
	switch f {
	case "1":
		return true
	case "0":
		return false
	default:
		return fallback
	}
}

func parseIntField(f string) (int, error) {
	if f == "" {
		return 0, nil
	}
	return strconv.Atoi(f)
}
