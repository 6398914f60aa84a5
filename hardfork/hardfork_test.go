// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hardfork_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/margind/hardfork"
)

func TestZeroThresholdNeverActivates(t *testing.T) {
	h := hardfork.Timestamps{}
	assert.False(t, h.IsIssue615Active(1<<62))
	assert.False(t, h.IsICRActive(1<<62))
}

func TestThresholdActivatesAtAndAfter(t *testing.T) {
	h := hardfork.Timestamps{Issue615: 1000}
	assert.False(t, h.IsIssue615Active(999))
	assert.True(t, h.IsIssue615Active(1000))
	assert.True(t, h.IsIssue615Active(1001))
}
