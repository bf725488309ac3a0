// Package dataprocessing loads the planning inputs from the inputs directory:
// monthly sales CSVs, stock and standard-time tables, per-class hour
// calendars, bill-of-materials and component-policy workbooks, and the
// optional flow-shop orders workbook. All text inputs are validated as
// UTF-8 before parsing; a file with mojibake is rejected up front.
package dataprocessing
