// Package control receives settings updates from outside the process and
// forwards them to the frame driver.
package control

import (
	"github.com/pthm-cable/ember/settings"
)

// Sink accepts patches. Submit must be safe for concurrent use and must not
// block.
type Sink interface {
	Submit(p settings.Patch)
}

// Source reports the settings currently in effect.
type Source interface {
	Settings() settings.Settings
}

// decode accepts a full update message or, failing that, a bare settings
// object. ok is false when data is a message of another type.
func decode(data []byte) (p settings.Patch, ok bool, err error) {
	p, ok, err = settings.DecodeMessage(data)
	if ok || err != nil {
		return p, ok, err
	}
	if settings.MessageType(data) != "" {
		return settings.Patch{}, false, nil
	}
	p, err = settings.DecodePatch(data)
	return p, true, err
}
