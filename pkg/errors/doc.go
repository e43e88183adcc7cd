// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeOperationFailure,
//	    "failed to apply package item",
//	    applyErr,
//	    map[string]interface{}{
//	        "item": itemName,
//	        "type": itemType,
//	    },
//	)
package errors
