// Package loader registers HTTP features on a router.
//
// A feature is one self-contained slice of the API (observation submission,
// the sync trigger) that owns its routes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// Manager.LoadAll loads registered features in registration order, skips
// disabled ones and stops at the first failure.
package loader
