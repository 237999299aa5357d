// Package floor implements the floor-side actors: a scripted injector that
// replays hall-call requests against the scheduler, and a receiver that
// counts completions and signals when every injected request has finished.
package floor

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/galemire/elevator-dispatch/internal/domain"
)

// headerLines is the number of leading lines ParseInputFile skips before
// it starts treating lines as records.
const headerLines = 2

// recordFields is the number of whitespace-separated tokens a valid
// record line carries: time source floorButton elevatorButton fault.
const recordFields = 5

// ParseInputFile reads a scripted hall-call file, skipping the first two
// header lines. Each subsequent line must hold five whitespace-separated
// tokens; malformed lines are skipped rather than aborting the read, per
// the external-collaborator input parser spec.md scopes out of the core.
func ParseInputFile(r io.Reader) []domain.Event {
	scanner := bufio.NewScanner(r)

	var events []domain.Event
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		if lineNumber <= headerLines {
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		event, ok := parseRecord(line)
		if !ok {
			continue
		}
		events = append(events, event)
	}

	return events
}

func parseRecord(line string) (domain.Event, bool) {
	tokens := strings.Fields(line)
	if len(tokens) != recordFields {
		return domain.Event{}, false
	}

	elevatorButton, err := strconv.Atoi(tokens[3])
	if err != nil {
		return domain.Event{}, false
	}

	fault, err := strconv.Atoi(tokens[4])
	if err != nil {
		return domain.Event{}, false
	}

	return domain.Event{
		Time:           tokens[0],
		Source:         tokens[1],
		FloorButton:    domain.FloorButton(tokens[2]),
		ElevatorButton: elevatorButton,
		IsFromFloor:    true,
		Fault:          domain.Fault(fault),
	}, true
}
