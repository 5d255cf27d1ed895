package render

import "github.com/valerio/go-dmg/dmg/memory"

// Command is a host action bound to a key, as opposed to a joypad key.
type Command uint8

const (
	CommandNone Command = iota
	CommandQuit
	CommandSnapshot
	CommandDebugToggle
)

// Binding is what pressing a host key does: either drive a joypad key or
// run a host command.
type Binding struct {
	Key     memory.JoypadKey
	Command Command
}

// DefaultKeyMap binds key names to actions. Backends translate their native
// key codes to these names, so every backend shares the same layout.
var DefaultKeyMap = map[string]Binding{
	"z":     {Key: memory.JoypadA},
	"x":     {Key: memory.JoypadB},
	"Enter": {Key: memory.JoypadStart},
	"Shift": {Key: memory.JoypadSelect},
	"Tab":   {Key: memory.JoypadSelect},
	"Up":    {Key: memory.JoypadUp},
	"Down":  {Key: memory.JoypadDown},
	"Left":  {Key: memory.JoypadLeft},
	"Right": {Key: memory.JoypadRight},

	// WASD
	"w": {Key: memory.JoypadUp},
	"s": {Key: memory.JoypadDown},
	"a": {Key: memory.JoypadLeft},
	"d": {Key: memory.JoypadRight},

	"F9":     {Command: CommandSnapshot},
	"F10":    {Command: CommandDebugToggle},
	"Escape": {Command: CommandQuit},
	"q":      {Command: CommandQuit},
}

// LookupKey returns the binding of a key name.
func LookupKey(name string) (Binding, bool) {
	b, ok := DefaultKeyMap[name]
	return b, ok
}

func isDirection(key memory.JoypadKey) bool {
	return key <= memory.JoypadDown
}
