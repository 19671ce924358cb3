// Package build provides the canonical build execution pipeline for sitebundle.
//
// A build runs named stages in a fixed order:
//
//	validate → prepare → minify → assets → static → linkcheck → precompress
//
// minify is the only parallel stage: every source file is transformed in its own
// goroutine and the stage ends when all of them have finished, successful or not.
// Nothing is cancelled once started. A failed build leaves whatever was already
// written in the output directory; the persisted report records the failure.
//
// All execution paths (CLI build, watch, serve) route through BuildService.
package build
