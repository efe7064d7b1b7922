package store

import (
	"context"
	"errors"
	"time"

	"github.com/chazu/bcvm/pkg/bytecode"
	"github.com/chazu/bcvm/vm"
)

// Error kinds recorded for failures that are not VM errors.
const (
	KindStepLimit = "step-limit"
	KindCanceled  = "canceled"
	KindOther     = "error"
)

// ErrKindOf names the failure class of err for the ledger.
func ErrKindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case vm.KindOf(err) != 0:
		return vm.KindOf(err).String()
	case errors.Is(err, bytecode.ErrStepLimit):
		return KindStepLimit
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindOther
}

// NewRun describes a finished execution of the program with the given hash.
func NewRun(hash [32]byte, result int32, err error, steps int, started time.Time) Run {
	r := Run{
		Hash:      hash,
		Result:    result,
		ErrKind:   ErrKindOf(err),
		Steps:     steps,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if err != nil {
		r.ErrMsg = err.Error()
	}
	return r
}
