package main

import "os"

// currentActor names the principal the rate limiter and audit log charge
// this invocation to. CLI runs have no session concept, so the OS user is
// the natural stand-in.
func currentActor() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
