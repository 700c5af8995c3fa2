// Package manifest reads Cargo package manifests and resolves local
// path-dependencies.
//
// A manifest declares the package name and its dependencies. Dependencies
// carrying an explicit "path" entry reference other packages on the local
// filesystem; [ResolveDependencies] walks those references recursively and
// returns the full set of directories that must accompany the package into
// a build sandbox.
//
// Resolution is cycle-safe: each absolute directory is visited at most once,
// so self-referential and mutually-referential dependency graphs terminate.
// Failures below the first level are best-effort: a dependency whose own
// manifest cannot be resolved further is still included in the result, and
// the directory is recorded in the resolution's ignored list.
package manifest
