// Package mocks provides test doubles for the collaborators that sit at
// process boundaries: token signing and outbound notification delivery.
package mocks
