// Copyright 2026 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryN(t *testing.T) {
	defer SetVerbosity(SetVerbosity(0))

	start := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	en := Every(time.Minute)
	require.True(t, en.shouldLog(start))
	require.False(t, en.shouldLog(start.Add(time.Second)))
	require.False(t, en.shouldLog(start.Add(59*time.Second)))
	require.True(t, en.shouldLog(start.Add(time.Minute)))
	require.False(t, en.shouldLog(start.Add(time.Minute+time.Second)))

	SetVerbosity(2)
	require.True(t, en.shouldLog(start.Add(time.Minute+time.Second)))
}
