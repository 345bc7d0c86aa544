package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Wake   func(WakeArgs) (Result, error)
	Plan   func() (Result, error)
	Cancel func() (Result, error)
	Status func() (Result, error)
	Pause  func() (Result, error)
	Resume func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeWake:
		if handlers.Wake == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "wake handler not configured"}
		}
		return handlers.Wake(*cmd.Wake)
	case TypePlan:
		return runSimple(handlers.Plan, "plan")
	case TypeCancel:
		return runSimple(handlers.Cancel, "cancel")
	case TypeStatus:
		return runSimple(handlers.Status, "status")
	case TypePause:
		return runSimple(handlers.Pause, "pause")
	case TypeResume:
		return runSimple(handlers.Resume, "resume")
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func runSimple(handler func() (Result, error), name string) (Result, error) {
	if handler == nil {
		return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
	}
	return handler()
}
