// Package fileutil holds the file system helpers shared by the evidence pipeline.
//
// ScanDirectory lists candidate evidence files directly inside a source
// directory. Output is sorted so fuzzy matching sees candidates in a stable order
// and picks the same file on every run.
//
// CopyFile is the overwrite-safe copy used when gathering evidence: content goes
// to a temporary file beside the destination and is renamed into place, then the
// source's permission bits and modification time are applied.
//
// RemoveLowerVersions prunes superseded supporting documents that follow the
// "<name>_NN.docx" revision naming convention.
package fileutil
