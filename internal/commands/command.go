package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeWake   Type = "wake"
	TypePlan   Type = "plan"
	TypeCancel Type = "cancel"
	TypeStatus Type = "status"
	TypePause  Type = "pause"
	TypeResume Type = "resume"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// adjustment offsets the user may tack onto a wake time, in minutes.
var allowedAdjustments = map[int]bool{0: true, 5: true, 10: true, 15: true}

type WakeArgs struct {
	Hour          int
	Minute        int
	AdjustMinutes int
}

type Command struct {
	Type Type
	Raw  string
	Wake *WakeArgs
}

// Parse turns a palette line like "wake 07:30 +5" or "cancel" into a
// Command. A leading slash is tolerated.
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeWake:
		return parseWake(input, args)
	case TypePlan, TypeCancel, TypeStatus, TypePause, TypeResume:
		if len(args) != 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", head)}
		}
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseWake(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "wake requires a time (HH:MM)"}
	}

	hour, minute, err := parseClock(args[0])
	if err != nil {
		return Command{}, err
	}

	adjust := 0
	if len(args) > 1 {
		adjust, err = parseAdjustment(args[1])
		if err != nil {
			return Command{}, err
		}
	}
	if len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "wake takes at most a time and an adjustment"}
	}

	return Command{Type: TypeWake, Raw: raw, Wake: &WakeArgs{Hour: hour, Minute: minute, AdjustMinutes: adjust}}, nil
}

func parseClock(token string) (int, int, error) {
	fields := strings.SplitN(token, ":", 2)
	if len(fields) != 2 {
		return 0, 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid time %q, expected HH:MM", token)}
	}
	hour, err := strconv.Atoi(fields[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid hour in %q", token)}
	}
	minute, err := strconv.Atoi(fields[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid minute in %q", token)}
	}
	return hour, minute, nil
}

func parseAdjustment(token string) (int, error) {
	trimmed := strings.TrimPrefix(token, "+")
	v, err := strconv.Atoi(trimmed)
	if err != nil || !allowedAdjustments[v] {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("adjustment must be +0, +5, +10 or +15, got %q", token)}
	}
	return v, nil
}
