// Package gpio reads the farm's digital field inputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the field module outputs.
type Reader interface {
	// Read returns the logical states of the rain and soil-dry inputs.
	// The rain module pulls its DO line low when wet; the soil module drives
	// its DO line high when moisture is below the threshold.
	// Returns (rain, dry, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinRain = 17
	DefaultPinDry  = 27
)
