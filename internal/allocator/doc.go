// Package allocator implements a general-purpose dynamic memory allocator
// on top of raw anonymous pages obtained from the operating system.
//
// Requests are rounded up to a 16-byte alignment and classified into one
// of three size classes (TINY, SMALL, LARGE). TINY and SMALL requests are
// served from shared zones that hold many boundary-tagged blocks; LARGE
// requests get a dedicated zone sized to fit exactly one allocation. Every
// public entry point (Malloc, Free, Realloc, ShowAllocMem) is serialized
// by a single process-wide mutex.
package allocator
