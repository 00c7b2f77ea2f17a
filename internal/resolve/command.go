package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultAppointmentType labels threads opened from the /new command.
const DefaultAppointmentType = "Appointment"

const usageNew = "Usage: /new [name or part of name] [appointment type]"

// ExecuteCommand parses a leading verb and runs the matching operation. All
// engine errors with a user-facing meaning (no match, resolution conflict,
// unknown command, missing import source) are converted to plain output
// strings here; only persistence faults are returned as errors.
func (s *Service) ExecuteCommand(ctx context.Context, input string) (string, error) {
	cmd := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(cmd, "/new"):
		args := strings.Fields(cmd)[1:]
		if len(args) == 0 {
			return usageNew, nil
		}
		text := strings.Join(args, " ")

		res, err := s.ResolveAndCreateThread(ctx, text, DefaultAppointmentType)
		var conflict *ConflictError
		switch {
		case errors.Is(err, ErrNoMatch):
			return fmt.Sprintf("No matches for '%s'.", text), nil
		case errors.As(err, &conflict):
			return fmt.Sprintf("Could not resolve contact for %s.", conflict.Name), nil
		case err != nil:
			return "", err
		}
		return fmt.Sprintf("Created new thread with %s (%s)", res.DisplayName, res.Phone), nil

	case cmd == "/import":
		result, err := s.directory.BulkLoad(ctx)
		if err != nil {
			return "", err
		}
		switch {
		case result.AlreadyPopulated:
			return "Contacts already imported.", nil
		case result.SourceMissing:
			return "Contact source not found; nothing imported.", nil
		}
		return fmt.Sprintf("Contacts imported: %d loaded, %d skipped.", result.Loaded, result.Skipped), nil

	default:
		return fmt.Sprintf("Unknown command: %s", cmd), nil
	}
}
