//  Copyright 2023 Stealth Rocket, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sigcond

import (
	"encoding/binary"
	"hash/maphash"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/pprof/profile"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// WriteProfile writes a profile to a file at the given path.
func WriteProfile(path string, prof *profile.Profile) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}
	defer w.Close()
	if err := prof.Write(w); err != nil {
		return errors.Wrap(err, "writing profile")
	}
	return nil
}

// Collector aggregates signal dispatches into a pprof profile: one sample
// per distinct (condition name, signaling call stack) pair, with the number
// of signals and abort unwinds observed for it. At most one collector is
// active in the process at a time; dispatch on any goroutine reports to it.
type Collector struct {
	sampler Sampler
	start   time.Time

	mu     sync.Mutex
	counts map[uint64]*stackCounter
}

var activeCollector atomic.Pointer[Collector]

// NewCollector returns a collector observing dispatches at the given sample
// rate, between 0 and 1.
func NewCollector(sampleRate float64) *Collector {
	return &Collector{
		sampler: newSampler(sampleRate),
		counts:  make(map[uint64]*stackCounter),
	}
}

// Start installs c as the process-wide dispatch collector.
func (c *Collector) Start() {
	c.start = time.Now()
	activeCollector.Store(c)
}

// Stop uninstalls the collector and returns the profile built from the
// samples observed since Start.
func (c *Collector) Stop() *profile.Profile {
	activeCollector.CompareAndSwap(c, nil)
	return c.Profile()
}

type stackCounter struct {
	name  string
	stack []uintptr
	value [2]int64 // signals, unwinds
}

var stackHashSeed = maphash.MakeSeed()

func observeSignal(name string) {
	if c := activeCollector.Load(); c != nil {
		c.observe(name, 1, 0)
	}
}

func observeUnwind(name string) {
	if c := activeCollector.Load(); c != nil {
		c.observe(name, 0, 1)
	}
}

func (c *Collector) observe(name string, signals, unwinds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sampler.Do() {
		return
	}

	var pcs [64]uintptr
	// Skip runtime.Callers, observe, observeSignal/observeUnwind and
	// SignalAt so samples start at the signaling site.
	n := runtime.Callers(4, pcs[:])
	stack := pcs[:n]

	var h maphash.Hash
	h.SetSeed(stackHashSeed)
	h.WriteString(name)
	bx := make([]byte, 8)
	for _, pc := range stack {
		binary.LittleEndian.PutUint64(bx, uint64(pc))
		h.Write(bx)
	}
	key := h.Sum64()

	sc := c.counts[key]
	if sc == nil {
		sc = &stackCounter{name: name, stack: slices.Clone(stack)}
		c.counts[key] = sc
	}
	sc.value[0] += signals
	sc.value[1] += unwinds
}

// Profile builds a pprof profile from the samples collected so far.
// Symbolization goes through runtime.CallersFrames, so inlined calls expand
// into their own frames.
func (c *Collector) Profile() *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "signals", Unit: "count"},
			{Type: "unwinds", Unit: "count"},
		},
		TimeNanos:     c.start.UnixNano(),
		DurationNanos: int64(time.Since(c.start)),
	}

	locationCache := make(map[uint64]*profile.Location)
	functionCache := make(map[string]*profile.Function)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sc := range c.counts {
		var locations []*profile.Location

		frames := runtime.CallersFrames(sc.stack)
		for {
			frame, more := frames.Next()
			if frame.PC != 0 {
				locations = append(locations, locationForFrame(prof, frame, locationCache, functionCache))
			}
			if !more {
				break
			}
		}

		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: locations,
			Value:    slices.Clone(sc.value[:]),
			Label:    map[string][]string{"condition": {sc.name}},
		})
	}

	return prof
}

func locationForFrame(prof *profile.Profile, frame runtime.Frame, locations map[uint64]*profile.Location, functions map[string]*profile.Function) *profile.Location {
	key := uint64(frame.PC)
	if loc := locations[key]; loc != nil {
		return loc
	}

	name := frame.Function
	if name == "" {
		name = "unknown"
	}

	fn := functions[name]
	if fn == nil {
		fn = &profile.Function{
			ID:         uint64(len(functions)) + 1, // 0 is reserved by pprof
			Name:       name,
			SystemName: name,
			Filename:   frame.File,
		}
		functions[name] = fn
		prof.Function = append(prof.Function, fn)
	}

	loc := &profile.Location{
		ID:      uint64(len(locations)) + 1, // 0 is reserved by pprof
		Address: uint64(frame.PC),
		Line: []profile.Line{{
			Function: fn,
			Line:     int64(frame.Line),
		}},
	}
	locations[key] = loc
	prof.Location = append(prof.Location, loc)

	return loc
}
