//go:build sandboxvenue

package swap

// SandboxVenue reports whether venue failures are downgraded to warnings.
// Only builds tagged sandboxvenue enable it.
const SandboxVenue = true
