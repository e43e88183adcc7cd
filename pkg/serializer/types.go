/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package serializer

import "context"

// Serializer writes structured results to some destination in a configured
// format. The context is for cancellation on implementations that do real
// I/O.
type Serializer interface {
	Serialize(ctx context.Context, data any) error
}

// Closer is implemented by serializers holding resources (file handles)
// that need releasing.
type Closer interface {
	Close() error
}
