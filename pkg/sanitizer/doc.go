// Package sanitizer normalizes user supplied marketplace data before validation and storage.
//
// All functions are idempotent and return empty values instead of errors for
// input they cannot make sense of, leaving rejection to the validators.
//
// Normalization includes:
//   - Phone numbers: E.164, numbers without a country code are read as Indian
//   - URLs: scheme required, host lowercased, path and query preserved
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Tags (amenities, review categories): lowercase, single spaced
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
