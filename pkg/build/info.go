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

package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// TimeFormat is the reference format for build.Time.
const TimeFormat = "2006/01/02 15:04:05"

var (
	// These variables are initialized via the linker -X flag when compiling
	// release binaries.
	tag      = "unknown" // Tag of this build (git describe --tags w/ optional '-dirty' suffix)
	utcTime  string      // Build time in UTC (year/month/day hour:min:sec)
	rev      string      // SHA-1 of this build (git rev-parse)
	platform = fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
)

// Info describes the binary.
type Info struct {
	GoVersion string
	Tag       string
	Time      string
	Revision  string
	Platform  string
	// Dependencies lists "path@version" of the modules linked in.
	Dependencies []string
}

// Short returns a pretty printed build and version summary.
func (b Info) Short() string {
	return fmt.Sprintf("kafka-metrics %s (%s, built %s, %s)",
		b.Tag, b.Platform, b.Time, b.GoVersion)
}

// GoTime parses the build time and returns a time.Time.
func (b Info) GoTime() time.Time {
	val, err := time.Parse(TimeFormat, b.Time)
	if err != nil {
		return time.Time{}
	}
	return val
}

// GetInfo returns an Info struct populated with the build information.
// Fields the linker did not set are filled in from the module build
// information where available.
func GetInfo() Info {
	info := Info{
		GoVersion: runtime.Version(),
		Tag:       tag,
		Time:      utcTime,
		Revision:  rev,
		Platform:  platform,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Tag == "unknown" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Tag = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == "" {
				info.Revision = s.Value
			}
		case "vcs.time":
			if info.Time == "" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.Time = t.UTC().Format(TimeFormat)
				}
			}
		}
	}
	for _, dep := range bi.Deps {
		info.Dependencies = append(info.Dependencies, dep.Path+"@"+dep.Version)
	}
	return info
}

// TestingOverrideTag allows tests to override the build tag.
func TestingOverrideTag(t string) func() {
	prev := tag
	tag = t
	return func() { tag = prev }
}
