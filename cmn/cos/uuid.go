// Package cos provides common low-level types and utilities shared by the
// NM and SS.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"sync"

	"github.com/teris-io/shortid"
)

const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func initShortID() {
	sid = shortid.MustNew(1 /*worker*/, uuidABC, 0)
}

// GenSentenceID produces a short, stable id for a newly created sentence
// node; the SS keys its per-file sentence index (File.bySentence) by it.
func GenSentenceID() string {
	sidOnce.Do(initShortID)
	return sid.MustGenerate()
}

// GenClientID produces a short id identifying one NM/SS connection's caller,
// recorded as a sentence's locked_by and released on disconnect.
func GenClientID() string {
	sidOnce.Do(initShortID)
	return sid.MustGenerate()
}
