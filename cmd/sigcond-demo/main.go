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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/stealthrocket/sigcond"
)

var (
	profilePath string
	sampleRate  float64
)

func init() {
	pflag.StringVar(&profilePath, "profile", "", "Write a dispatch profile to the specified file before exiting.")
	pflag.Float64Var(&sampleRate, "sample-rate", 1.0, "Set the dispatch sampling rate (0-1).")
}

func main() {
	pflag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var collector *sigcond.Collector
	if profilePath != "" {
		collector = sigcond.NewCollector(sampleRate)
		collector.Start()
	}

	a := 0

	warnings := &sigcond.Handler{
		Name: sigcond.WarningName,
		Func: func(c *sigcond.Condition, _ any) sigcond.Verdict {
			fmt.Printf("warned: %s\n", c.Message)
			return sigcond.Handled
		},
	}
	sigcond.InstallHandler(warnings)
	defer sigcond.RemoveHandler(warnings)

	retry := &sigcond.Restart{
		Name: "retry",
		Func: func(c *sigcond.Condition, _ any) sigcond.RestartResult {
			fmt.Println("retry restart invoked")
			return sigcond.RestartSucceeded
		},
	}
	sigcond.InstallRestart(retry)
	defer sigcond.RemoveRestart(retry)

	aborter := &sigcond.Handler{
		Name: "something",
		Func: func(*sigcond.Condition, any) sigcond.Verdict {
			return sigcond.Abort
		},
	}

	entry := sigcond.Protect(aborter, func() {
		handler := &sigcond.Handler{
			Name: "something",
			Data: &a,
			Func: handleSomething,
		}
		sigcond.InstallHandler(handler)

		passer := &sigcond.Handler{
			Name: "something",
			Func: func(*sigcond.Condition, any) sigcond.Verdict {
				fmt.Println("I'll pass, thanks")
				return sigcond.Pass
			},
		}
		sigcond.InstallHandler(passer)

		finalizer := &sigcond.Finalizer{
			Func: func(any) { fmt.Println("finalizer ran") },
		}
		sigcond.InstallFinalizer(finalizer)

		a++
		fmt.Printf("in protected area: a = %d\n", a)
		sigcond.Signal("something", "signaled for the kick of it")

		sigcond.RemoveFinalizer(finalizer)
		sigcond.RemoveHandler(passer)
		sigcond.RemoveHandler(handler)

		sigcond.Warn("about to signal again")
		sigcond.Signal("something", "this one aborts")
	})
	if entry == sigcond.EntryAborted {
		fmt.Println("abort handler has aborted")
	}
	sigcond.RemoveHandler(aborter)

	fmt.Printf("after protected area: a = %d\n", a)

	if collector != nil {
		return sigcond.WriteProfile(profilePath, collector.Stop())
	}
	return nil
}

func handleSomething(c *sigcond.Condition, data any) sigcond.Verdict {
	fmt.Print("handling condition ")
	sigcond.Print(c)
	fmt.Println()
	if sigcond.InvokeRestart(c, "retry") != sigcond.RestartSucceeded {
		return sigcond.Pass
	}
	*data.(*int) = 10
	return sigcond.Handled
}
