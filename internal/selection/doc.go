// Package selection tracks which reports of the visible page are selected for
// bulk operations.
package selection
