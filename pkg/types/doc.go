// Package types defines the entity types, the Backend contract, identifier and
// name normalization, and the standard error values for the qmva procedure
// desk. It has no dependencies outside the standard library so that every
// other package can share it.
package types
