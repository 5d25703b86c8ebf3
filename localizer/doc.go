// Package localizer runs pdffigures2, an external figure and table
// detector, and reads its JSON output.
//
// pdffigures2 reports two things: figures with a region and a rendered PNG,
// and "regionless" captions it found without being able to bound the figure
// they belong to. Both come back in PDF points, top-down, relative to the
// page; pages are converted to 1-indexed numbers.
//
// Any failure of the tool (missing jar or JVM, non-zero exit, timeout,
// missing or malformed output) is reported as an error wrapping
// ErrUnavailable. Output of a failed run is never used.
package localizer
