// Package core provides the preview pipeline for CSV imports.
//
// This package holds the domain logic independent of any transport. It is
// used by the web handlers, the importcheck CLI and tests without
// modification.
//
// # Pipeline
//
// [ParseForPreview] turns raw bytes into a page of rows:
//
//  1. The charset detector picks the most plausible encoding and decodes the bytes
//  2. The text is split into lines and tokenized; the first line is the header
//  3. Rows are padded or truncated to the header width
//  4. The first maxRows rows are returned and, when rules are given, validated
//
// TotalRows always counts the whole file, so HasMore tells callers whether
// the page is a prefix.
//
// # Service
//
// [Service] wraps the pipeline with the configured limits. It rejects files
// over the size limit, resolves schema keys through the rules registry,
// bounds concurrency with a [PreviewLimiter] and records each run in the
// optional history store. [Service.PreviewURL] fetches a remote file first.
//
// # Error Handling
//
// Errors are mapped to user-friendly messages using [MapError]. Each
// category has a code for support reference:
//
//   - FILE001-FILE005: File errors (size, missing, empty)
//   - SCH001: Unknown schema
//   - FETCH001-FETCH005: Remote fetch errors
//   - PRV001-PRV003: Preview errors (busy, cancelled, timeout)
//   - HIST001, NOTF001: History errors
//
// # History Retention
//
// When history is enabled, [Service.StartHistoryPruner] deletes runs older
// than the configured retention window.
package core
