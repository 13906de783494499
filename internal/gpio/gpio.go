// Package gpio reads raw button levels with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the raw levels of the configured button lines.
type Reader interface {
	// Read returns one logical level per configured line, in
	// configuration order. true means the contact is active.
	Read() ([]bool, error)

	// Close releases the underlying resources.
	Close() error
}

// DefaultChip is the character device holding the button lines on a
// Raspberry Pi.
const DefaultChip = "gpiochip0"

// DefaultPins are the BCM line offsets used when none are configured.
var DefaultPins = []int{26, 16}
