// Package catalog holds named, declarative item definitions and turns them
// into runnable configuration items: built-in types are wired to system
// appliers, plugin-registered types to their handlers.
package catalog
