// ABOUTME: Version information for pulse binaries
// ABOUTME: Reported in feed hellos, startup logs and the TUI header
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "Pulse"

	// Manufacturer identifies the maker
	Manufacturer = "Resonate"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
