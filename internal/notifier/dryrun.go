package notifier

import (
	"github.com/coursewatch/coursewatch/internal/changes"
	"github.com/coursewatch/coursewatch/internal/logger"
)

// DryRun logs what would be delivered without delivering anything.
type DryRun struct {
	log *logger.Logger
}

func NewDryRun(log *logger.Logger) *DryRun {
	return &DryRun{log: log.With("component", "notifier")}
}

func (n *DryRun) Notify(detected []changes.Change) error {
	for _, ch := range detected {
		n.log.Info("change detected",
			"section", ch.SectionID,
			"kind", ch.Kind,
			"old", ch.Old,
			"new", ch.New,
		)
	}
	return nil
}
