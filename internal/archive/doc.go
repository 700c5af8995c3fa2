// Package archive packs directory trees into gzip-compressed tar archives
// and unpacks them back into in-memory files.
//
// Archives are the transport format between the host and a build sandbox:
// source trees are packed rooted at a sanitized version of their host path
// so they land at a predictable location under the sandbox root, and build
// outputs come back as archives that are unpacked in memory, keeping only
// non-empty regular files.
package archive
