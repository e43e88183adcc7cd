// Package bridge resolves layered configuration documents: built-in data
// embedded in the binary, user override files, and any additional sources
// are deep-merged per topic, with a named variant overlaid on the topic's
// base section. Resolved documents are cached with a TTL, and a failing
// source degrades to an empty contribution with a throttled warning.
package bridge
