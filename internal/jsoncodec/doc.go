// Package jsoncodec serializes arbitrary values to JSON text for reports and
// diffs, and reads JSON back.
//
// Scalars that lose information as JSON numbers or RFC 3339 strings get
// dedicated encodings, registered as a json-iterator extension local to each
// Codec:
//   - time.Time is written as local date-time text (2024-03-05T14:07:09.25)
//     in the codec's location, optionally trimming trailing fraction zeros
//   - Date is written as a calendar date (2024-03-05)
//   - decimal.Decimal is written as its exact decimal string
//
// Pretty output is produced line by line stable: object key order is kept
// as serialized, and short arrays fit on one line.
package jsoncodec
