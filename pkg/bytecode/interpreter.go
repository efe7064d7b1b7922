package bytecode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/bcvm/vm"
	"github.com/tliron/commonlog"
)

var (
	// ErrStepLimit is returned when a run exceeds Options.MaxSteps.
	ErrStepLimit = errors.New("step limit exceeded")
	// ErrAlreadyRun is returned by a second Run on the same Interpreter.
	ErrAlreadyRun = errors.New("interpreter has already run")
)

// CancelCheckInterval is how many instructions execute between context checks
// in RunContext.
const CancelCheckInterval = 1024

// noBookmark marks the absence of a live JUMP_IF_EQ.
const noBookmark = -1

// Options configures an Interpreter. The zero value gives a 512-slot stack,
// no step limit and no tracing.
type Options struct {
	StackSize int              // operand stack capacity; 0 selects vm.DefaultStackSize
	MaxSteps  int              // instructions allowed before ErrStepLimit; 0 is unlimited
	Trace     bool             // log every executed instruction at debug level
	Logger    commonlog.Logger // trace destination; nil selects "bcvm.interp"
}

// Interpreter runs one Program against a fresh vm.Engine.
//
// Loops use a single bookmark: JUMP_IF_EQ records its own pc and END jumps
// to two instructions before it. A JUMP_IF_EQ inside a loop body replaces
// the outer loop's bookmark, so loops do not nest.
type Interpreter struct {
	prog   *Program
	engine *vm.Engine
	opts   Options
	log    commonlog.Logger

	pc       int
	bookmark int
	steps    int
	ran      bool
}

// New decodes text and returns an interpreter with default options.
func New(text string) *Interpreter {
	return NewWithOptions(text, Options{})
}

// NewWithOptions decodes text and returns an interpreter configured by opts.
func NewWithOptions(text string, opts Options) *Interpreter {
	return NewForProgram(Parse(text), opts)
}

// NewForProgram returns an interpreter for an already decoded program.
func NewForProgram(prog *Program, opts Options) *Interpreter {
	log := opts.Logger
	if log == nil {
		log = commonlog.GetLogger("bcvm.interp")
	}
	return &Interpreter{
		prog:     prog,
		engine:   vm.NewEngine(opts.StackSize),
		opts:     opts,
		log:      log,
		bookmark: noBookmark,
	}
}

// Program returns the decoded program.
func (it *Interpreter) Program() *Program { return it.prog }

// Engine exposes the execution engine, for inspecting variables after a run.
func (it *Interpreter) Engine() *vm.Engine { return it.engine }

// Steps returns the number of instructions executed so far.
func (it *Interpreter) Steps() int { return it.steps }

// Run executes the program to completion. It returns the value of the
// first RETURN_VALUE, or 0 if execution falls off the end. Failures are
// *vm.Error values stamped with the source line.
func (it *Interpreter) Run() (int32, error) {
	return it.RunContext(context.Background())
}

// RunContext is Run with cancellation. The context is polled every
// CancelCheckInterval instructions.
func (it *Interpreter) RunContext(ctx context.Context) (int32, error) {
	if it.ran {
		return 0, ErrAlreadyRun
	}
	it.ran = true

	code := it.prog.Instructions
	for it.pc < len(code) {
		if it.steps%CancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if it.opts.MaxSteps > 0 && it.steps >= it.opts.MaxSteps {
			return 0, fmt.Errorf("%w: %d instructions executed", ErrStepLimit, it.steps)
		}
		it.steps++

		in := code[it.pc]
		if it.opts.Trace {
			it.trace(in)
		}

		result, done, err := it.step(in)
		if err != nil {
			return 0, vm.AtLine(err, in.Line)
		}
		if done {
			return result, nil
		}
	}
	return 0, nil
}

func (it *Interpreter) trace(in Instruction) {
	it.log.Debugf("%04d line %-4d %-12s %-10s depth=%d",
		it.pc, in.Line, in.Name, strings.Join(in.Args, " "), it.engine.Depth())
}

// step executes one instruction and moves the program counter.
func (it *Interpreter) step(in Instruction) (result int32, done bool, err error) {
	e := it.engine

	switch in.Op {
	// ============ Values and Variables ============
	case OpLoadVal, OpWriteVar, OpReadVar:
		if len(in.Args) != 1 {
			return 0, false, vm.Errorf(vm.KindSyntax,
				"%s: invalid number of arguments - 1 required, but %d provided", in.Name, len(in.Args))
		}
		switch in.Op {
		case OpLoadVal:
			err = e.LoadValue(in.Args[0])
		case OpWriteVar:
			err = e.WriteVar(in.Args[0])
		default:
			err = e.ReadVar(in.Args[0])
		}

	// ============ Arithmetic ============
	case OpAdd:
		err = e.Add()
	case OpSubtract:
		err = e.Subtract()
	case OpMultiply:
		err = e.Multiply()
	case OpDivide:
		err = e.Divide()

	// ============ Return ============
	case OpReturnValue:
		result, err = e.ReturnValue()
		return result, err == nil, err

	// ============ Control Flow ============
	case OpJumpIfEq:
		it.bookmark = it.pc
		var eq bool
		if eq, err = e.IsEqual(); err != nil {
			return 0, false, err
		}
		if eq {
			end, ok := it.prog.FindEnd(it.pc)
			if !ok {
				return 0, false, vm.Errorf(vm.KindSyntax, "no END statement for a loop")
			}
			it.pc = end
		}

	case OpEnd:
		if it.bookmark == noBookmark {
			return 0, false, vm.Errorf(vm.KindSyntax, "no JUMP_IF_EQ statement for a loop")
		}
		if it.bookmark < 2 {
			return 0, false, vm.Errorf(vm.KindSyntax,
				"JUMP_IF_EQ at instruction %d needs two instructions before it to loop back to", it.bookmark)
		}
		it.pc = it.bookmark - 2
		it.bookmark = noBookmark
		return 0, false, nil

	default:
		return 0, false, vm.Errorf(vm.KindInvalidOp, "unknown operation: %s", in.Name)
	}

	if err != nil {
		return 0, false, err
	}
	it.pc++
	return 0, false, nil
}
