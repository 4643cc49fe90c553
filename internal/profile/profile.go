package profile

import (
	"os"
	"strings"
)

type Profile string

const (
	Local Profile = "local"
	Dev   Profile = "dev"
	Prod  Profile = "prod"
)

// Current is the profile the process was started with, taken from PROFILE.
var Current = FromEnv()

func FromEnv() Profile {
	p := strings.ToLower(strings.TrimSpace(os.Getenv("PROFILE")))
	if p == "" {
		return Local
	}
	return Profile(p)
}
