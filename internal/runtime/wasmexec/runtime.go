package wasmexec

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/meterwasm/vmhost/internal/runtime/logic"
	"github.com/meterwasm/vmhost/internal/runtime/prepare"
	"github.com/meterwasm/vmhost/types"
)

// hostModuleName is the engine-side namespace the env facade imports
// host functions from. Contracts never see it: their imports resolve
// against the generated env module.
const hostModuleName = "vmhost"

// contractModuleName names the instantiated contract inside the engine.
const contractModuleName = "contract"

// VM executes prepared contracts. One VM is safe for sequential reuse;
// every Run builds a fresh engine instance so no state leaks between
// calls.
type VM struct {
	config *types.Config
	logger zerolog.Logger
}

// New builds a VM with the given configuration.
func New(config *types.Config, logger zerolog.Logger) *VM {
	return &VM{config: config, logger: logger}
}

// callState collects the first host-call failure of one execution. The
// failure also unwinds the engine as a trap; keeping it here makes the
// outcome independent of how the engine wraps the unwind.
type callState struct {
	hostErr *types.VMLogicError
}

func (cs *callState) fail(err error) {
	le := types.AsVMLogicError(err)
	if cs.hostErr == nil {
		cs.hostErr = le
	}
	panic(vmAbort{err: le})
}

// recoverAbort funnels the panic sentinel back into an error return.
func recoverAbort(err *error) {
	if r := recover(); r != nil {
		if a, ok := r.(vmAbort); ok {
			*err = a.err
			return
		}
		panic(r)
	}
}

func (vm *VM) registerHostModule(ctx context.Context, rt wazero.Runtime, name string, table []hostFunc, l *logic.VMLogic, cs *callState) error {
	b := rt.NewHostModuleBuilder(name)
	for _, def := range table {
		def := def
		fn := api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			if err := def.call(l, stack); err != nil {
				cs.fail(err)
			}
		})
		b = b.NewFunctionBuilder().
			WithGoModuleFunction(fn, def.params, def.results).
			Export(def.name)
	}
	_, err := b.Instantiate(ctx)
	return err
}

// Run executes one exported method of a prepared contract and returns
// its outcome. A non-nil error is fatal to the host; every guest-caused
// failure lands in the outcome instead.
func (vm *VM) Run(ctx context.Context, code []byte, method string, ext types.External, vmctx *types.VMContext) (*types.VMOutcome, error) {
	mem := &guestMemory{}
	l, err := logic.New(ext, mem, vmctx, vm.config)
	if err != nil {
		_, runnerErr := types.AsVMLogicError(err).FunctionCallError()
		return nil, runnerErr
	}

	counter := l.GasCounter()
	if err := counter.BeforeLoadingExecutable(); err != nil {
		return l.OutcomeFromError(err)
	}
	if err := counter.AfterLoadingExecutable(uint64(len(code))); err != nil {
		return l.OutcomeFromError(err)
	}

	rcfg := wazero.NewRuntimeConfigInterpreter().WithCoreFeatures(prepare.CoreFeatures)
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	defer rt.Close(ctx)

	cs := &callState{}
	if err := vm.registerHostModule(ctx, rt, hostModuleName, hostFuncTable, l, cs); err != nil {
		return nil, fmt.Errorf("register host module: %w", err)
	}
	if err := vm.registerHostModule(ctx, rt, prepare.HostInternalModule, internalFuncTable, l, cs); err != nil {
		return nil, fmt.Errorf("register instrumentation module: %w", err)
	}

	shim := prepare.BuildEnvModule(hostModuleName, envShimFuncs(),
		vm.config.LimitConfig.InitialMemoryPages, vm.config.LimitConfig.MaxMemoryPages)
	envMod, err := rt.InstantiateWithConfig(ctx, shim, wazero.NewModuleConfig().WithName(prepare.HostEnvModule))
	if err != nil {
		return nil, fmt.Errorf("instantiate env module: %w", err)
	}
	mem.mem = envMod.ExportedMemory(prepare.MemoryImportName)

	if method == "" {
		return vm.resolveFailure(l, types.MethodEmptyName), nil
	}

	compiled, err := rt.CompileModule(ctx, code)
	if err != nil {
		vm.logger.Debug().Err(err).Msg("contract failed engine compilation")
		return l.Outcome(&types.FunctionCallError{
			Compilation: &types.CompilationError{EngineCompile: err.Error()},
		}), nil
	}
	def, ok := compiled.ExportedFunctions()[method]
	if !ok {
		return vm.resolveFailure(l, types.MethodNotFound), nil
	}
	if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) != 0 {
		return vm.resolveFailure(l, types.MethodInvalidSignature), nil
	}

	runErr := vm.invoke(func() error {
		mod, ierr := rt.InstantiateModule(ctx, compiled,
			wazero.NewModuleConfig().WithName(contractModuleName).WithStartFunctions())
		if ierr != nil {
			return ierr
		}
		fn := mod.ExportedFunction(method)
		if fn == nil {
			return &types.VMLogicError{Host: &types.HostError{Kind: types.GuestPanic, Msg: "method export vanished"}}
		}
		_, cerr := fn.Call(ctx)
		return cerr
	})
	return vm.finish(l, cs, runErr, method)
}

// invoke runs an engine operation, converting the abort sentinel back
// into an error.
func (vm *VM) invoke(f func() error) (err error) {
	defer recoverAbort(&err)
	return f()
}

func (vm *VM) resolveFailure(l *logic.VMLogic, kind types.MethodResolveErrorKind) *types.VMOutcome {
	return l.Outcome(&types.FunctionCallError{
		MethodResolve: &types.MethodResolveError{Kind: kind},
	})
}

// finish maps the engine result to an outcome. Host-call failures beat
// whatever error shape the engine wrapped them in; anything else that
// stopped the engine is a guest trap.
func (vm *VM) finish(l *logic.VMLogic, cs *callState, runErr error, method string) (*types.VMOutcome, error) {
	if cs.hostErr != nil {
		runErr = cs.hostErr
	}
	if runErr == nil {
		outcome := l.Outcome(nil)
		vm.logger.Debug().
			Str("method", method).
			Uint64("burnt_gas", outcome.BurntGas).
			Uint64("used_gas", outcome.UsedGas).
			Msg("contract call finished")
		return outcome, nil
	}
	if le, ok := runErr.(*types.VMLogicError); ok {
		outcome, fatalErr := l.OutcomeFromError(le)
		if fatalErr != nil {
			return nil, fatalErr
		}
		vm.logger.Debug().
			Str("method", method).
			Str("abort", outcome.Aborted.Error()).
			Msg("contract call aborted")
		return outcome, nil
	}
	// The engine stopped on its own: an unreachable, a memory fault, a
	// stack exhaustion. All of them are guest-caused.
	vm.logger.Debug().Str("method", method).Err(runErr).Msg("contract call trapped")
	return l.Outcome(&types.FunctionCallError{
		Host: &types.HostError{Kind: types.GuestPanic, Msg: runErr.Error()},
	}), nil
}
