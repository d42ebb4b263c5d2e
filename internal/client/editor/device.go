package editor

import (
	"os"

	"github.com/gabenodland/trace-sub002/internal/common"
)

// DeviceIdentityProvider resolves the identity string of this device. The
// lookup may fail in hostile runtime conditions; callers must treat the
// result as best-effort and never let a failure stop conflict detection.
type DeviceIdentityProvider interface {
	Current() (string, error)
}

// HostnameIdentity is the default provider, backed by os.Hostname.
type HostnameIdentity struct{}

func (HostnameIdentity) Current() (string, error) {
	return os.Hostname()
}

// StaticIdentity always returns a fixed name. Used in tests and by the CLI
// when the user configures an explicit device name.
type StaticIdentity string

func (s StaticIdentity) Current() (string, error) {
	return string(s), nil
}

// resolveDevice downgrades lookup failures to the sentinel instead of
// propagating them.
func resolveDevice(p DeviceIdentityProvider) string {
	if p == nil {
		return common.UnknownDevice
	}
	name, err := p.Current()
	if err != nil || name == "" {
		return common.UnknownDevice
	}
	return name
}
