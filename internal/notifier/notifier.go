// Package notifier defines the outbound notification boundary. Real
// transports live outside this module; the core only hands them changes.
package notifier

import "github.com/coursewatch/coursewatch/internal/changes"

// Notifier receives the changes detected in one term update.
type Notifier interface {
	Notify(changes []changes.Change) error
}
