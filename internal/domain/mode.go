package domain

// CarMode is the motion/door mode a car actor reports on telemetry.
type CarMode string

const (
	ModeRest       CarMode = "REST"
	ModeMovingUp   CarMode = "MOVING_UP"
	ModeMovingDown CarMode = "MOVING_DOWN"
	ModeDoorOpen   CarMode = "DOOR_OPEN"
	ModeDoorClose  CarMode = "DOOR_CLOSE"
)

// ModeFromButton derives a car's reported mode from a telemetry event's
// FloorButton field, per the scheduler's telemetry-handling rule: UP/DOWN
// maps to the matching moving mode, empty maps to REST.
func ModeFromButton(b FloorButton) CarMode {
	switch b {
	case ButtonUp:
		return ModeMovingUp
	case ButtonDown:
		return ModeMovingDown
	default:
		return ModeRest
	}
}

// IsAtRest reports whether the mode counts as "at rest" for the
// scheduler's directional-bonus rules (REST, DOOR_OPEN, DOOR_CLOSE).
func (m CarMode) IsAtRest() bool {
	return m == ModeRest || m == ModeDoorOpen || m == ModeDoorClose
}
