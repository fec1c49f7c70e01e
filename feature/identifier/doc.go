// Package identifier allocates the random nine-digit public identifiers
// carried by observations. Allocation draws from crypto/rand, checks the
// candidate against the store and gives up after a bounded number of
// collisions.
package identifier
