// Package io provides JSON and YAML import and export for commit histories.
//
// # Overview
//
// Exported histories let a graph be rendered without access to the original
// repository: capture once with `lanegraph layout --export-history`, render
// anywhere with `lanegraph render --input history.json`. The same files are
// handy as fixtures.
//
// # Format
//
// Both encodings share one document shape:
//
//	{
//	  "version": 1,
//	  "commits": [
//	    {"hash": "c3", "parents": ["c2"], "refs": ["HEAD", "main"]},
//	    {"hash": "c2", "parents": ["c1"]},
//	    {"hash": "c1"}
//	  ]
//	}
//
// Commits are listed newest first, exactly as the lane engine consumes
// them. Only "hash" is required. Optional fields are short_hash, subject,
// author, date (RFC 3339), parents, refs and stash.
//
// # Choosing an encoding
//
// [FormatFromPath] picks the encoding from the file extension: ".yaml" and
// ".yml" select YAML, everything else JSON. [ImportCommits] and
// [ExportCommits] use it; [ReadCommits] and [WriteCommits] take the format
// explicitly for streams.
//
// # Validation
//
// Import rejects documents with an unknown version and commits without a
// hash. It does not check that parents exist: a missing parent is a normal
// condition the engine handles.
package io
