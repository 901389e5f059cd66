// Package records turns raw listing posts into image records with portable
// destination filenames. It does no I/O.
package records
