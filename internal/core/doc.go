// Package core implements the range-mapping and extraction pipeline that
// turns a decoded spreadsheet grid into normalized CSV rows.
//
// The pipeline has two generation modes:
//
//   - Records mode maps one or more A1-style ranges per output column into
//     keyed records, classifying each range as row-wise or column-wise by
//     shape (see BuildRecords).
//
//   - Assignments mode expands a marked 2-D matrix against two label
//     vectors into relational pairs, with optional per-pair extra columns
//     resolved by positional alignment (see BuildAssignments).
//
// Generated rows then flow through the filter evaluator, the duplicate
// detector, and the CSV codec. The differ compares two CSV documents for
// change auditing.
//
// Every stage is a pure function of (grid, config): the grid is never
// mutated, fallible steps resolve to a value plus a warnings list, and no
// panic crosses the package boundary. This package has no UI or database
// dependencies and is shared by the HTTP server and the CLI.
package core
