// Package vmhost is the public surface of the metered contract runtime:
// preparation of raw contract bytes into instrumented modules, execution
// of prepared modules against an External state collaborator, and
// inspection of callable exports.
package vmhost

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"

	"github.com/meterwasm/vmhost/internal/runtime/prepare"
	"github.com/meterwasm/vmhost/internal/runtime/wasmexec"
	"github.com/meterwasm/vmhost/types"
)

// PrepareContract validates raw contract bytes and returns the
// instrumented module the runtime executes. Preparation is deterministic
// and happens once per deployed contract.
func PrepareContract(ctx context.Context, code []byte, config *types.Config) ([]byte, error) {
	return prepare.Prepare(ctx, code, config)
}

// RunContract executes one exported method of a prepared contract. A
// returned error is fatal to the host; guest-caused failures land in the
// outcome's Aborted field instead.
func RunContract(ctx context.Context, preparedCode []byte, method string, ext types.External, vmctx *types.VMContext, config *types.Config, logger zerolog.Logger) (*types.VMOutcome, error) {
	vm := wasmexec.New(config, logger)
	return vm.Run(ctx, preparedCode, method, ext, vmctx)
}

// ListMethods returns the callable exports of a prepared module: the
// exported functions taking no parameters and returning no results,
// sorted by name.
func ListMethods(ctx context.Context, preparedCode []byte) ([]string, error) {
	rcfg := wazero.NewRuntimeConfigInterpreter().WithCoreFeatures(prepare.CoreFeatures)
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	defer rt.Close(ctx)
	cm, err := rt.CompileModule(ctx, preparedCode)
	if err != nil {
		return nil, &types.CompilationError{EngineCompile: err.Error()}
	}
	defer cm.Close(ctx)
	var methods []string
	for name, def := range cm.ExportedFunctions() {
		if len(def.ParamTypes()) == 0 && len(def.ResultTypes()) == 0 {
			methods = append(methods, name)
		}
	}
	sort.Strings(methods)
	return methods, nil
}
