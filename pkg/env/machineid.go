package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// MachineID retrieves an ID identifying the machine without exposing the
// raw machine ID. It falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("stp")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}

// NewSession creates an ID identifying a single run.
func NewSession() string {
	return uuid.NewString()
}
