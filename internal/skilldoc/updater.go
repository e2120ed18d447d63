package skilldoc

import (
	"log/slog"
)

// Updater folds accepted reflections into skill documents. Each applied
// learning bumps the document version and reflection count; the rest of
// the body is never touched.
type Updater struct {
	store    *Store
	strategy MergeStrategy
	log      *slog.Logger
}

// NewUpdater creates an Updater. A zero strategy defaults to auto.
func NewUpdater(store *Store, strategy MergeStrategy,
	log *slog.Logger) *Updater {

	if strategy == "" {
		strategy = StrategyAuto
	}

	return &Updater{
		store:    store,
		strategy: strategy,
		log:      log.With("component", "skilldoc"),
	}
}

// Store returns the underlying document store.
func (u *Updater) Store() *Store {
	return u.store
}

// Apply folds one learning into the named skill document and reports
// whether the document changed. A missing skill surfaces as
// TargetNotFoundError; a fingerprint collision is routed through the
// merge strategy.
func (u *Updater) Apply(name string, l Learning) (*Document, bool, error) {
	doc, err := u.store.Load(name)
	if err != nil {
		return nil, false, err
	}

	if doc.ContainsFingerprint(l.Fingerprint) {
		changed, err := u.strategy.mergeExisting(doc, l)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			u.log.Info("learning already present, keeping "+
				"existing entry",
				"skill", name,
				"fingerprint", l.Fingerprint)
			return doc, false, nil
		}

		// A rewrite is a new document version but not a new
		// reflection.
		doc.Meta.Version++
		if err := u.store.Save(doc); err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}

	doc.appendLearning(l)
	doc.Meta.Version++
	doc.Meta.ReflectionCount++
	doc.Meta.LastReflection = l.Timestamp.Format(dateLayout)

	if err := u.store.Save(doc); err != nil {
		return nil, false, err
	}

	u.log.Info("applied learning to skill",
		"skill", name,
		"version", doc.Meta.Version,
		"fingerprint", l.Fingerprint)

	return doc, true, nil
}
