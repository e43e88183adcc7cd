// Package serializer reads and writes structured results in JSON, YAML,
// and (write-only) flattened table form, to stdout or files.
package serializer
