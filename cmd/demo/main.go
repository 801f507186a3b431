// Command demo prepares a contract, lists its callable methods, and
// optionally runs one against an in-memory state.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"

	vmhost "github.com/meterwasm/vmhost"
	"github.com/meterwasm/vmhost/internal/runtime/extmock"
	"github.com/meterwasm/vmhost/types"
)

func main() {
	method := flag.String("method", "", "exported method to run after preparation")
	input := flag.String("input", "", "method arguments")
	view := flag.Bool("view", false, "run the method as a read-only view call")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	if flag.NArg() != 1 {
		logger.Fatal().Msg("usage: demo [flags] <contract.wasm>")
	}
	code, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot read contract")
	}

	ctx := context.Background()
	config := types.DefaultConfig()

	prepared, err := vmhost.PrepareContract(ctx, code, &config)
	if err != nil {
		logger.Fatal().Err(err).Msg("preparation failed")
	}
	logger.Info().
		Int("raw_size", len(code)).
		Int("prepared_size", len(prepared)).
		Msg("contract prepared")

	methods, err := vmhost.ListMethods(ctx, prepared)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot list methods")
	}
	for _, m := range methods {
		logger.Info().Str("method", m).Msg("callable export")
	}

	if *method == "" {
		return
	}

	vmctx := &types.VMContext{
		CurrentAccountID:     "demo.contract",
		SignerAccountID:      "demo.signer",
		SignerAccountPK:      make([]byte, 33),
		PredecessorAccountID: "demo.signer",
		Input:                []byte(*input),
		BlockHeight:          1,
		BlockTimestamp:       1,
		AccountBalance:       types.Balance{Lo: 1_000_000},
		PrepaidGas:           config.LimitConfig.MaxGasBurnt,
		RandomSeed:           make([]byte, 32),
	}
	if *view {
		viewCfg := types.DefaultViewConfig()
		vmctx.ViewConfig = &viewCfg
	}

	outcome, err := vmhost.RunContract(ctx, prepared, *method, extmock.NewExternal(), vmctx, &config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("fatal runtime error")
	}
	for _, line := range outcome.Logs {
		logger.Info().Str("log", line).Msg("contract log")
	}
	event := logger.Info().
		Uint64("burnt_gas", outcome.BurntGas).
		Uint64("used_gas", outcome.UsedGas)
	if outcome.Aborted != nil {
		event.Str("aborted", outcome.Aborted.Error()).Msg("call failed")
		os.Exit(1)
	}
	event.Bytes("return", outcome.ReturnData.Value).Msg("call succeeded")
}
