// Package submission manages the lifecycle of form submissions: gated
// creation, review status changes, bulk actions and filtered listings. All
// persistence goes through a Store; the package itself keeps no state.
package submission
