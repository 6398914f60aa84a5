// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command margind is a minimal demonstration of the ledger package: it
// wires up logging the way the teacher's daemon entry point does, runs
// genesis plus a handful of blocks against an in-memory ledger, and prints
// the resulting balances. It is not a consensus node — there is no
// network, no persistence, and no peer protocol; every other package in
// this module is a reusable library the real thing would sit on top of.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/ledger"
	"github.com/bitmark-inc/margind/txdriver"
)

func main() {
	logDirectory := flag.String("log-directory", ".", "directory to write margind.log into")
	logLevel := flag.String("log-level", "info", "default log level")
	flag.Parse()

	logConfig := logger.Configuration{
		Directory: *logDirectory,
		File:      "margind.log",
		Size:      1048576,
		Count:     10,
		Console:   true,
		Levels: map[string]string{
			logger.DefaultTag: *logLevel,
		},
	}
	if err := logger.Initialise(logConfig); nil != err {
		fmt.Fprintf(os.Stderr, "logger initialisation failed: %s\n", err)
		os.Exit(1)
	}
	defer logger.Finalise()

	// fault.Panicf/PanicIfError need this last-resort "PANIC" channel set
	// up before any package can hit a programmer-error invariant violation
	// (see registry.Session's double-commit/discard guard).
	if err := fault.Initialise(); nil != err {
		fmt.Fprintf(os.Stderr, "fault initialisation failed: %s\n", err)
		os.Exit(1)
	}
	defer fault.Finalise()

	log := logger.New("main")
	log.Info("starting…")
	defer log.Info("stopped")

	chain := ledger.New(hardfork.Timestamps{})

	issuer := demoAccount(1)
	alice := demoAccount(2)
	bob := demoAccount(3)

	coreID, err := chain.Genesis(issuer, "CORE", 8, 100000000)
	if nil != err {
		log.Errorf("genesis failed: %s", err)
		os.Exit(1)
	}

	results := chain.ApplyBlock([]interface{}{
		txdriver.Transfer{From: issuer, To: alice, Asset: coreID, Amount: 1000000},
		txdriver.Transfer{From: issuer, To: bob, Asset: coreID, Amount: 500000},
	}, 1)
	for i, r := range results {
		if nil != r.Err {
			log.Warnf("tx %d rejected: %s", i, r.Err)
		}
	}

	usdResults := chain.ApplyBlock([]interface{}{
		txdriver.AssetCreate{
			Issuer:    issuer,
			Symbol:    asset.Symbol("USD"),
			Precision: 4,
			Options:   asset.Options{MaxSupply: 100000000},
			Bitasset: &asset.BitassetData{
				BackingAsset:             coreID,
				ForceSettleDelaySec:      86400,
				MaxForceSettlementVolume: 200,
				MinimumFeeds:             1,
				FeedProducers:            []account.Account{issuer},
			},
		},
	}, 2)
	if nil != usdResults[0].Err {
		log.Errorf("asset_create USD failed: %s", usdResults[0].Err)
		os.Exit(1)
	}
	usdID := usdResults[0].Result.CreatedID

	fmt.Printf("core asset: %s\n", coreID)
	fmt.Printf("usd bitasset: %s\n", usdID)
	fmt.Printf("alice core balance: %d\n", chain.Balance(alice, coreID))
	fmt.Printf("bob core balance: %d\n", chain.Balance(bob, coreID))
	fmt.Printf("issuer core balance: %d\n", chain.Balance(issuer, coreID))
}

func demoAccount(seed byte) account.Account {
	key := make([]byte, 32)
	key[0] = seed
	return account.Account{Test: true, PublicKey: key}
}
