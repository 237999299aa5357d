package domain

import "strings"

// FloorButton is the hall-call direction button, or empty for telemetry
// from a car at rest.
type FloorButton string

const (
	ButtonUp   FloorButton = "UP"
	ButtonDown FloorButton = "DOWN"
	ButtonNone FloorButton = ""
)

// Fault is a mechanical fault code carried on a hall-call event and latched
// onto the car for the duration of the assignment it accompanies.
type Fault int

const (
	FaultNone          Fault = 0
	FaultCarStuck      Fault = 1
	FaultDoorOpenStuck Fault = 2
	FaultDoorCloseStuck Fault = 3
	FaultArrivalSensor Fault = 4
)

// elevatorSourcePrefix is the literal prefix used on the Source field of
// every event emitted by a car actor: "Elevator:<id>".
const elevatorSourcePrefix = "Elevator"

// Event is the universal wire message passed between floor, scheduler, and
// car actors. Field names and semantics match the wire format exactly.
type Event struct {
	Time             string
	Source           string
	FloorButton      FloorButton
	ElevatorButton   int
	IsFromFloor      bool
	AssignedElevator int
	CurrentFloor     int
	Riders           int
	IsComplete       bool
	Fault            Fault
}

// SourceIsElevator reports whether Source carries the "Elevator:<id>"
// prefix convention, independent of the IsFromFloor bit.
func (e Event) SourceIsElevator() bool {
	return strings.HasPrefix(e.Source, elevatorSourcePrefix)
}

// IsGoingUp derives hall-call direction from FloorButton.
func (e Event) IsGoingUp() bool {
	return e.FloorButton == ButtonUp
}

// IsGoingDown derives hall-call direction from FloorButton.
func (e Event) IsGoingDown() bool {
	return e.FloorButton == ButtonDown
}
