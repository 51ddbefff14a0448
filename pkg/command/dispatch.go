package command

import (
	"github.com/rs/zerolog"

	"github.com/sacovo/vectord/pkg/vdberr"
)

// Dispatch executes cmd against reg and wraps the outcome in a Result,
// matching Command.execute in original_source/src/luxdb/commands.py:
// domain errors (anything satisfying vdberr's taxonomy) become a FAILED
// result carrying that error as Data; any other error is logged as
// unexpected and still returned as FAILED so the connection stays open.
func Dispatch(cmd Command, reg Registry, log zerolog.Logger) Result {
	data, err := cmd.Execute(reg)
	if err == nil {
		return Result{State: Succeeded, Data: data}
	}

	if !isDomainError(err) {
		log.Error().Err(err).Msg("unexpected error executing command")
	}
	return Result{State: Failed, Data: err}
}

// isDomainError reports whether err is one of the known, expected failure
// modes rather than a genuine bug — used only to decide whether Dispatch
// logs it as unexpected.
func isDomainError(err error) bool {
	switch err.(type) {
	case *vdberr.IndexAlreadyExists,
		*vdberr.IndexDoesNotExist,
		*vdberr.UnknownSpace,
		*vdberr.NotACommand,
		*vdberr.IndexNotInitialized,
		*vdberr.CapacityExceeded,
		*vdberr.DimensionMismatch,
		*vdberr.UnknownLabel:
		return true
	default:
		return false
	}
}
